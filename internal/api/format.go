package api

import (
	"fmt"
	"strings"

	"leaf-vision/internal/domain/entity"
)

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// isHealthyLabel класс здорового листа определяется по имени папки
func isHealthyLabel(label string) bool {
	return strings.Contains(strings.ToLower(label), "healthy")
}

func formatPrediction(pred *entity.Prediction) string {
	var sb strings.Builder
	if isHealthyLabel(pred.Label) {
		sb.WriteString("✅ Лист здоров.\n")
	} else {
		sb.WriteString("🍂 Обнаружены признаки болезни.\n")
	}
	fmt.Fprintf(&sb, "\nДиагноз: %s (%s)\n", pred.Label, percent(pred.Confidence))

	if len(pred.Top) > 1 {
		sb.WriteString("\nНаиболее вероятные классы:\n")
		for i, s := range pred.Top {
			fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, s.Class, percent(s.Confidence))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatClasses(classes []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌿 Распознаваемые классы (%d):\n", len(classes))
	for _, c := range classes {
		fmt.Fprintf(&sb, "• %s\n", c)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(items []entity.Diagnosis) string {
	if len(items) == 0 {
		return msgNoHistory
	}
	var sb strings.Builder
	sb.WriteString("🗂 Последние диагнозы:\n")
	for _, d := range items {
		fmt.Fprintf(&sb, "%s  %s (%s)\n", d.At.Format("02.01 15:04"), d.Label, percent(d.Confidence))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHealth(h entity.Health) string {
	var sb strings.Builder
	switch h.Outcome.State {
	case entity.StateReady:
		sb.WriteString("✅ Модель загружена.\n")
	case entity.StateDegraded:
		sb.WriteString("⚠️ Модель загружена, но реестр классов расходится с датасетом.\n")
	default:
		sb.WriteString("❌ Модель не загружена.\n")
	}
	fmt.Fprintf(&sb, "Устройство: %s\nКлассов: %d", h.Device, h.NumClasses)
	if h.Outcome.Reason != "" {
		fmt.Fprintf(&sb, "\nПричина: %s", h.Outcome.Reason)
	}
	return sb.String()
}

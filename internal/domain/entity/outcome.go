package entity

// LoadState итог загрузки модели при старте
type LoadState string

const (
	StateReady       LoadState = "ready"       // модель и классы согласованы
	StateDegraded    LoadState = "degraded"    // модель загружена, но классы под вопросом
	StateUnavailable LoadState = "unavailable" // модели нет, предсказания недоступны
)

// LoadOutcome состояние загрузки вместе с причиной деградации.
type LoadOutcome struct {
	State  LoadState
	Reason string
}

// Ready сообщает, можно ли выполнять предсказания.
func (o LoadOutcome) Ready() bool {
	return o.State == StateReady || o.State == StateDegraded
}

// OutcomeReady модель загружена, реестр классов совпадает.
func OutcomeReady() LoadOutcome { return LoadOutcome{State: StateReady} }

func OutcomeDegraded(reason string) LoadOutcome {
	return LoadOutcome{State: StateDegraded, Reason: reason}
}

func OutcomeUnavailable(reason string) LoadOutcome {
	return LoadOutcome{State: StateUnavailable, Reason: reason}
}

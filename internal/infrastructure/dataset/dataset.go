package dataset

import (
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
	"leaf-vision/internal/infrastructure/vision"
)

// DefaultAugmentProbability доля не-healthy изображений, получающих спектральный стресс.
const DefaultAugmentProbability = 0.25

// Dataset ограниченная случайная выборка изображений по классам.
// Список образцов фиксируется при создании; Get читает файл заново на каждый вызов
// и безопасен для параллельных читателей.
type Dataset struct {
	root        string
	classes     []string
	samples     []entity.Sample
	maxPerClass int
	augmenter   port.Augmenter
	augmentProb float64
	transform   *vision.Pipeline
	seed        int64

	mu    sync.Mutex
	seeds *rand.Rand
}

// Option настраивает Dataset.
type Option func(*Dataset)

// WithMaxPerClass задаёт верхнюю границу образцов на класс.
func WithMaxPerClass(n int) Option {
	return func(d *Dataset) { d.maxPerClass = n }
}

// WithAugmenter задаёт аугментатор; nil отключает аугментацию.
func WithAugmenter(a port.Augmenter) Option {
	return func(d *Dataset) { d.augmenter = a }
}

// WithAugmentProbability задаёт вероятность аугментации не-healthy образца.
func WithAugmentProbability(p float64) Option {
	return func(d *Dataset) { d.augmentProb = p }
}

// WithTransform задаёт конвейер предобработки после аугментации.
func WithTransform(p *vision.Pipeline) Option {
	return func(d *Dataset) { d.transform = p }
}

// WithSeed фиксирует выборку и случайные решения.
func WithSeed(seed int64) Option {
	return func(d *Dataset) { d.seed = seed }
}

// New строит список образцов: реестр классов, листинг папок, выборка.
func New(root string, opts ...Option) (*Dataset, error) {
	d := &Dataset{
		root:        root,
		maxPerClass: MaxSamplesPerClass,
		augmenter:   vision.NewSpectralStress(),
		augmentProb: DefaultAugmentProbability,
		transform:   vision.TrainPipeline(),
		seed:        time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(d)
	}

	classes, err := ListClasses(root)
	if err != nil {
		return nil, err
	}
	d.classes = classes

	rnd := rand.New(rand.NewSource(d.seed))
	for label, class := range classes {
		files, err := listFiles(filepath.Join(root, class))
		if err != nil {
			return nil, err
		}
		for _, path := range SampleFiles(files, d.maxPerClass, rnd) {
			d.samples = append(d.samples, entity.Sample{Path: path, Class: class, Label: label})
		}
	}
	d.seeds = rand.New(rand.NewSource(rnd.Int63()))

	return d, nil
}

// Len число образцов.
func (d *Dataset) Len() int { return len(d.samples) }

// Classes упорядоченный реестр классов, по которому выданы индексы.
func (d *Dataset) Classes() []string {
	return append([]string(nil), d.classes...)
}

// Samples копия списка образцов.
func (d *Dataset) Samples() []entity.Sample {
	return append([]entity.Sample(nil), d.samples...)
}

// CountByClass число образцов в каждом классе, включая пустые.
func (d *Dataset) CountByClass() map[string]int {
	counts := make(map[string]int, len(d.classes))
	for _, c := range d.classes {
		counts[c] = 0
	}
	for _, s := range d.samples {
		counts[s.Class]++
	}
	return counts
}

// Get загружает i-й образец, применяет аугментацию и конвейер предобработки.
func (d *Dataset) Get(i int) (*entity.Tensor, int, error) {
	if i < 0 || i >= len(d.samples) {
		return nil, 0, fmt.Errorf("sample index %d out of range [0,%d)", i, len(d.samples))
	}
	s := d.samples[i]

	img, err := vision.DecodeFile(s.Path)
	if err != nil {
		return nil, 0, err
	}

	rnd := d.newRand()
	var out image.Image = img
	if d.augmenter != nil && ShouldAugment(s.Class, rnd.Float64(), d.augmentProb) {
		out = d.augmenter.Apply(img, rnd)
	}

	return d.transform.Run(out, rnd), s.Label, nil
}

// newRand выдаёт независимый генератор на один вызов Get.
func (d *Dataset) newRand() *rand.Rand {
	d.mu.Lock()
	seed := d.seeds.Int63()
	d.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// ShouldAugment решение об аугментации: никогда для классов с "healthy"
// в имени (без учёта регистра), иначе если draw < prob.
func ShouldAugment(class string, draw, prob float64) bool {
	if strings.Contains(strings.ToLower(class), "healthy") {
		return false
	}
	return draw < prob
}

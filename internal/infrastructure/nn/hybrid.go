package nn

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"leaf-vision/internal/domain/entity"
)

// Mode режим прямого прохода. Передаётся явно в каждый вызов.
type Mode int

const (
	Eval  Mode = iota // dropout выключен, случайности нет
	Train             // dropout активен
)

func (m Mode) String() string {
	if m == Train {
		return "train"
	}
	return "eval"
}

// DefaultShape архитектура по умолчанию для numClasses классов.
func DefaultShape(numClasses int) entity.ModelShape {
	return entity.ModelShape{
		NumClasses: numClasses,
		Channels:   64,
		EmbedDim:   64,
		Hidden:     256,
		Dropout:    0.3,
	}
}

// HybridNet CNN-ветка с канальным вниманием и трансформерная ветка,
// слитые конкатенацией и отображённые головой в логиты классов.
type HybridNet struct {
	shape entity.ModelShape
	cnn   *ConvBackbone
	vit   *PatchTransformer
	attn  *SpectralAttention
	fc1w  *Param
	fc1b  *Param
	fc2w  *Param
	fc2b  *Param

	mu  sync.RWMutex
	rnd *rand.Rand // только для dropout в режиме Train
}

// pass промежуточные значения прямого прохода для обратного.
type pass struct {
	gate    gateCache
	fused   *mat.Dense
	hidden  *mat.Dense
	dropped *mat.Dense
	mask    *mat.Dense
	logits  *mat.Dense
}

// New создаёт модель; веса инициализируются из seed.
func New(shape entity.ModelShape, seed int64) (*HybridNet, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	rnd := rand.New(rand.NewSource(seed))
	fused := shape.Channels + shape.EmbedDim
	return &HybridNet{
		shape: shape,
		cnn:   NewConvBackbone(shape.Channels, rnd),
		vit:   NewPatchTransformer(shape.EmbedDim, rnd),
		attn:  NewSpectralAttention(shape.Channels, rnd),
		fc1w:  newParam("head.fc1.weight", fused, shape.Hidden, heStd(fused), rnd).trainable(),
		fc1b:  zeroParam("head.fc1.bias", 1, shape.Hidden).trainable(),
		fc2w:  newParam("head.fc2.weight", shape.Hidden, shape.NumClasses, xavierStd(shape.Hidden), rnd).trainable(),
		fc2b:  zeroParam("head.fc2.bias", 1, shape.NumClasses).trainable(),
		rnd:   rand.New(rand.NewSource(rnd.Int63())),
	}, nil
}

func validateShape(s entity.ModelShape) error {
	switch {
	case s.NumClasses < 1:
		return fmt.Errorf("num classes must be positive, got %d", s.NumClasses)
	case s.Channels < 4 || s.Channels%4 != 0:
		return fmt.Errorf("channels must be a positive multiple of 4, got %d", s.Channels)
	case s.EmbedDim < 1:
		return fmt.Errorf("embed dim must be positive, got %d", s.EmbedDim)
	case s.Hidden < 1:
		return fmt.Errorf("hidden width must be positive, got %d", s.Hidden)
	case s.Dropout < 0 || s.Dropout >= 1:
		return fmt.Errorf("dropout must be in [0,1), got %g", s.Dropout)
	}
	return nil
}

// Shape архитектура модели.
func (m *HybridNet) Shape() entity.ModelShape { return m.shape }

// NumClasses ширина выходного слоя.
func (m *HybridNet) NumClasses() int { return m.shape.NumClasses }

// Forward возвращает сырые логиты B x NumClasses. В режиме Eval вызов
// детерминирован и безопасен для параллельного использования.
func (m *HybridNet) Forward(batch []*entity.Tensor, mode Mode) (*mat.Dense, error) {
	if mode == Train {
		m.mu.Lock()
		defer m.mu.Unlock()
	} else {
		m.mu.RLock()
		defer m.mu.RUnlock()
	}

	p, err := m.forward(batch, mode)
	if err != nil {
		return nil, err
	}
	return p.logits, nil
}

// TrainStep прямой проход в режиме Train, кросс-энтропия, обратный проход
// через голову и гейт внимания, шаг оптимизатора. Возвращает loss батча.
func (m *HybridNet) TrainStep(batch []*entity.Tensor, labels []int, opt *Adam) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loss, err := m.gradients(batch, labels, Train)
	if err != nil {
		return 0, err
	}
	opt.Step(m.trainable())
	return loss, nil
}

// gradients заполняет Grad обучаемых параметров и возвращает loss.
func (m *HybridNet) gradients(batch []*entity.Tensor, labels []int, mode Mode) (float64, error) {
	if len(labels) != len(batch) {
		return 0, fmt.Errorf("batch has %d samples but %d labels", len(batch), len(labels))
	}
	for _, y := range labels {
		if y < 0 || y >= m.shape.NumClasses {
			return 0, fmt.Errorf("label %d out of range [0,%d)", y, m.shape.NumClasses)
		}
	}

	p, err := m.forward(batch, mode)
	if err != nil {
		return 0, err
	}

	dLogits, loss := softmaxCrossEntropy(p.logits, labels)
	scale := 1 / float64(len(labels))
	for i, y := range labels {
		row := dLogits.RawRowView(i)
		row[y] -= 1
		floats.Scale(scale, row)
	}
	m.backward(p, dLogits)
	return loss, nil
}

func (m *HybridNet) forward(batch []*entity.Tensor, mode Mode) (*pass, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	for i, t := range batch {
		if err := t.CheckShape(entity.ImageChannels, entity.ImageSize, entity.ImageSize); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	maps, embeds, err := m.extract(batch)
	if err != nil {
		return nil, err
	}

	pooled, gate := m.attn.forward(maps)
	var fused mat.Dense
	fused.Augment(pooled, embeds)

	hidden := affine(&fused, m.fc1w, m.fc1b)
	relu(hidden)

	dropped, mask := hidden, (*mat.Dense)(nil)
	if mode == Train && m.shape.Dropout > 0 {
		dropped, mask = m.dropout(hidden)
	}

	return &pass{
		gate:    gate,
		fused:   &fused,
		hidden:  hidden,
		dropped: dropped,
		mask:    mask,
		logits:  affine(dropped, m.fc2w, m.fc2b),
	}, nil
}

// extract прогоняет обе замороженные ветки по образцам батча параллельно.
func (m *HybridNet) extract(batch []*entity.Tensor) ([]*mat.Dense, *mat.Dense, error) {
	maps := make([]*mat.Dense, len(batch))
	embeds := mat.NewDense(len(batch), m.shape.EmbedDim, nil)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range batch {
		i, t := i, t
		g.Go(func() error {
			maps[i] = m.cnn.FeatureMap(t)
			embeds.SetRow(i, m.vit.Embed(t))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return maps, embeds, nil
}

// dropout зануляет элементы с вероятностью Dropout и масштабирует оставшиеся.
func (m *HybridNet) dropout(h *mat.Dense) (*mat.Dense, *mat.Dense) {
	r, c := h.Dims()
	keep := 1 - m.shape.Dropout
	mask := mat.NewDense(r, c, nil)
	raw := mask.RawMatrix().Data
	for i := range raw {
		if m.rnd.Float64() < keep {
			raw[i] = 1 / keep
		}
	}
	var out mat.Dense
	out.MulElem(h, mask)
	return &out, mask
}

func (m *HybridNet) backward(p *pass, dLogits *mat.Dense) {
	m.fc2w.Grad.Mul(p.dropped.T(), dLogits)
	setColSums(m.fc2b.Grad, dLogits)

	var dHidden mat.Dense
	dHidden.Mul(dLogits, m.fc2w.W.T())
	if p.mask != nil {
		dHidden.MulElem(&dHidden, p.mask)
	}
	dHidden.Apply(func(i, j int, v float64) float64 {
		if p.hidden.At(i, j) <= 0 {
			return 0
		}
		return v
	}, &dHidden)

	m.fc1w.Grad.Mul(p.fused.T(), &dHidden)
	setColSums(m.fc1b.Grad, &dHidden)

	var dFused mat.Dense
	dFused.Mul(&dHidden, m.fc1w.W.T())
	rows, _ := dFused.Dims()
	dPooled := mat.DenseCopyOf(dFused.Slice(0, rows, 0, m.shape.Channels))
	m.attn.backward(dPooled, p.gate)
}

// trainable веса, обновляемые оптимизатором. Ветки заморожены.
func (m *HybridNet) trainable() []*Param {
	return append(m.attn.params(), m.fc1w, m.fc1b, m.fc2w, m.fc2b)
}

// params все веса модели в фиксированном порядке.
func (m *HybridNet) params() []*Param {
	ps := append(m.cnn.params(), m.vit.params()...)
	return append(ps, m.trainable()...)
}

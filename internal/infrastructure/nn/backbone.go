package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"leaf-vision/internal/domain/entity"
)

const (
	convKernel1 = 8  // 224 -> 28
	convKernel2 = 2  // 28 -> 14
	vitPatch    = 16 // 224 -> 14x14 токенов
)

// ConvBackbone замороженная свёрточная ветка без классификационной головы.
// Возвращает карту признаков 14x14 позиций на Channels каналов.
type ConvBackbone struct {
	channels int
	conv1w   *Param
	conv1b   *Param
	conv2w   *Param
	conv2b   *Param
}

// NewConvBackbone создаёт ветку с весами из генератора rnd.
func NewConvBackbone(channels int, rnd *rand.Rand) *ConvBackbone {
	half := channels / 2
	in1 := entity.ImageChannels * convKernel1 * convKernel1
	in2 := convKernel2 * convKernel2 * half
	return &ConvBackbone{
		channels: channels,
		conv1w:   newParam("cnn.conv1.weight", in1, half, heStd(in1), rnd),
		conv1b:   zeroParam("cnn.conv1.bias", 1, half),
		conv2w:   newParam("cnn.conv2.weight", in2, channels, heStd(in2), rnd),
		conv2b:   zeroParam("cnn.conv2.bias", 1, channels),
	}
}

// Channels ширина карты признаков.
func (b *ConvBackbone) Channels() int { return b.channels }

// FeatureMap строки - пространственные позиции, столбцы - каналы.
func (b *ConvBackbone) FeatureMap(t *entity.Tensor) *mat.Dense {
	h1 := affine(im2col(t, convKernel1), b.conv1w, b.conv1b)
	relu(h1)
	side := t.Height / convKernel1
	h2 := affine(im2colHWC(h1, side, side, convKernel2), b.conv2w, b.conv2b)
	relu(h2)
	return h2
}

func (b *ConvBackbone) params() []*Param {
	return []*Param{b.conv1w, b.conv1b, b.conv2w, b.conv2b}
}

// PatchTransformer замороженная ViT-ветка: эмбеддинг патчей, class-токен,
// один энкодерный блок. Выход - представление class-токена.
type PatchTransformer struct {
	dim    int
	patchW *Param
	patchB *Param
	cls    *Param
	pos    *Param
	wq     *Param
	wk     *Param
	wv     *Param
	wo     *Param
	mlp1w  *Param
	mlp1b  *Param
	mlp2w  *Param
	mlp2b  *Param
}

// NewPatchTransformer создаёт ветку с эмбеддингом ширины dim.
func NewPatchTransformer(dim int, rnd *rand.Rand) *PatchTransformer {
	in := entity.ImageChannels * vitPatch * vitPatch
	side := entity.ImageSize / vitPatch
	tokens := side*side + 1
	return &PatchTransformer{
		dim:    dim,
		patchW: newParam("vit.patch.weight", in, dim, xavierStd(in), rnd),
		patchB: zeroParam("vit.patch.bias", 1, dim),
		cls:    newParam("vit.cls_token", 1, dim, 0.02, rnd),
		pos:    newParam("vit.pos_embed", tokens, dim, 0.02, rnd),
		wq:     newParam("vit.attn.q", dim, dim, xavierStd(dim), rnd),
		wk:     newParam("vit.attn.k", dim, dim, xavierStd(dim), rnd),
		wv:     newParam("vit.attn.v", dim, dim, xavierStd(dim), rnd),
		wo:     newParam("vit.attn.proj", dim, dim, xavierStd(dim), rnd),
		mlp1w:  newParam("vit.mlp.fc1.weight", dim, 2*dim, heStd(dim), rnd),
		mlp1b:  zeroParam("vit.mlp.fc1.bias", 1, 2*dim),
		mlp2w:  newParam("vit.mlp.fc2.weight", 2*dim, dim, xavierStd(2*dim), rnd),
		mlp2b:  zeroParam("vit.mlp.fc2.bias", 1, dim),
	}
}

// Dim ширина выходного вектора.
func (v *PatchTransformer) Dim() int { return v.dim }

// Embed возвращает нормированное представление class-токена.
func (v *PatchTransformer) Embed(t *entity.Tensor) []float64 {
	e := affine(im2col(t, vitPatch), v.patchW, v.patchB)
	n, _ := e.Dims()

	x := mat.NewDense(n+1, v.dim, nil)
	x.SetRow(0, v.cls.W.RawRowView(0))
	for i := 0; i < n; i++ {
		x.SetRow(i+1, e.RawRowView(i))
	}
	x.Add(x, v.pos.W)

	// self-attention, pre-norm
	h := layerNorm(x)
	var q, k, val, scores mat.Dense
	q.Mul(h, v.wq.W)
	k.Mul(h, v.wk.W)
	val.Mul(h, v.wv.W)
	scores.Mul(&q, k.T())
	scores.Scale(1/math.Sqrt(float64(v.dim)), &scores)
	rows, _ := scores.Dims()
	for i := 0; i < rows; i++ {
		softmaxInPlace(scores.RawRowView(i))
	}
	var attended, projected mat.Dense
	attended.Mul(&scores, &val)
	projected.Mul(&attended, v.wo.W)
	x.Add(x, &projected)

	// MLP
	h = layerNorm(x)
	m := affine(h, v.mlp1w, v.mlp1b)
	relu(m)
	m = affine(m, v.mlp2w, v.mlp2b)
	x.Add(x, m)

	out := layerNorm(x)
	return append([]float64(nil), out.RawRowView(0)...)
}

func (v *PatchTransformer) params() []*Param {
	return []*Param{v.patchW, v.patchB, v.cls, v.pos, v.wq, v.wk, v.wv, v.wo, v.mlp1w, v.mlp1b, v.mlp2w, v.mlp2b}
}

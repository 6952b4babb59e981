package entity

import "errors"

// FallbackClasses используются, когда каталог датасета недоступен.
var FallbackClasses = []string{"Healthy", "Early Disease", "Disease"}

var (
	ErrDatasetNotFound = errors.New("dataset directory not found")
	ErrModelNotFound   = errors.New("model file not found")
	ErrModelNotLoaded  = errors.New("model not loaded")
	ErrNoImage         = errors.New("no image provided")
	ErrDecode          = errors.New("failed to decode image")
	ErrInference       = errors.New("inference failed")
)

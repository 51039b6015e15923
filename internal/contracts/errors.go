package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks a ticker excluded from output because no usable history exists
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData is returned when a series is shorter than MinAnalysisBars
	ErrInsufficientData = fmt.Errorf("%w: insufficient data", ErrDataUnavailable)

	// ErrNoData is returned by a history source that found nothing
	ErrNoData = fmt.Errorf("%w: no data", ErrDataUnavailable)

	// ErrLevelsUnavailable is returned when trade levels cannot be derived
	ErrLevelsUnavailable = errors.New("trade levels unavailable")
)

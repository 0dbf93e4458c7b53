package input

// Kind определяет тип входного события.
type Kind int

// Типы событий, учитываемые трекером.
const (
	KeyPress Kind = iota
	MouseClick
	MouseMove
	Scroll
)

// Event — одно событие ввода, преобразованное из системного хука.
//
// X и Y заполняются только для MouseMove, Amount — только для Scroll.
type Event struct {
	Kind   Kind
	X, Y   int32
	Amount uint64
}

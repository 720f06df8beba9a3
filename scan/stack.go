package scan

type visitStack[T any] []T

func (v *visitStack[T]) Pop() (T, bool) {
	if len(*v) == 0 {
		return *new(T), false
	}

	i := len(*v) - 1
	item := (*v)[i]
	*v = (*v)[:i]

	return item, true
}

func (v *visitStack[T]) Push(values ...T) {
	*v = append(*v, values...)
}

package vec

// Vec2 представляет целочисленные координаты ячейки сетки (колонка, ряд)
type Vec2 struct {
	X, Y int
}

// Index возвращает линейный индекс ячейки при row-major обходе сетки
func (v Vec2) Index(columns int) int {
	return v.Y*columns + v.X
}

// Equals проверяет равенство координат
func (v Vec2) Equals(other Vec2) bool {
	return v.X == other.X && v.Y == other.Y
}

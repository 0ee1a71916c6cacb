package world

// Kind тип падающего объекта; после создания не меняется
type Kind string

const (
	KindNormal Kind = "normal" // Дает очко при разрезе, заканчивает игру на полу
	KindHazard Kind = "hazard" // Заканчивает игру при разрезе, безвреден на полу
)

// FallingObject падающий объект на поле. Координаты центра в пикселях, скорость в px/s.
type FallingObject struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Kind      Kind    `json:"kind"`
	FallSpeed float64 `json:"fall_speed"`
	Sliced    bool    `json:"sliced"`
	Variant   int     `json:"variant"` // Индекс спрайта, только для отрисовки
}

// ReachedFloor проверяет, коснулся ли нижний край объекта линии пола
func (o *FallingObject) ReachedFloor(floorY float64) bool {
	return o.Y+o.Radius >= floorY
}

// OutOfBounds проверяет, что объект целиком ушел за нижний край поля
func (o *FallingObject) OutOfBounds(height float64) bool {
	return o.Y-o.Radius >= height
}

// Bounds размеры игрового поля; задаются снаружи и не меняются посреди сессии
type Bounds struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FloorMargin float64 `json:"floor_margin"` // Отступ линии пола от нижнего края
}

// FloorY координата линии пола
func (b Bounds) FloorY() float64 {
	return b.Height - b.FloorMargin
}

// Valid проверяет, что поле имеет положительные размеры
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0 && b.FloorMargin >= 0 && b.FloorMargin < b.Height
}

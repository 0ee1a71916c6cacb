package world

import "sync"

// Manager хранит живые падающие объекты в порядке появления.
// Пишет в него только горутина шага симуляции; снимки можно брать из любой горутины.
type Manager struct {
	objects []*FallingObject
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		objects: make([]*FallingObject, 0, 16),
	}
}

// Add добавляет объекты в конец списка
func (m *Manager) Add(objs ...*FallingObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, objs...)
}

// Advance сдвигает все неразрезанные объекты вниз на FallSpeed*dt и удаляет
// разрезанные и ушедшие за нижний край. Возвращает копии удаленных объектов.
func (m *Manager) Advance(dt float64, height float64) []FallingObject {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, obj := range m.objects {
		if !obj.Sliced {
			obj.Y += obj.FallSpeed * dt
		}
	}

	var removed []FallingObject
	kept := m.objects[:0]
	for _, obj := range m.objects {
		if obj.Sliced || obj.OutOfBounds(height) {
			removed = append(removed, *obj)
			continue
		}
		kept = append(kept, obj)
	}
	// обнуляем хвост, чтобы не держать удаленные объекты
	for i := len(kept); i < len(m.objects); i++ {
		m.objects[i] = nil
	}
	m.objects = kept

	return removed
}

// MarkSliced помечает объект разрезанным; он замирает на месте до следующего Advance
func (m *Manager) MarkSliced(obj *FallingObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj.Sliced = true
}

// Objects возвращает живые объекты (указатели) для проверок коллизий и пола
func (m *Manager) Objects() []*FallingObject {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*FallingObject, len(m.objects))
	copy(result, m.objects)
	return result
}

// Snapshot возвращает копии объектов для отрисовки
func (m *Manager) Snapshot() []FallingObject {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FallingObject, 0, len(m.objects))
	for _, obj := range m.objects {
		result = append(result, *obj)
	}
	return result
}

// GetObject возвращает копию объекта по идентификатору
func (m *Manager) GetObject(id string) (FallingObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, obj := range m.objects {
		if obj.ID == id {
			return *obj, true
		}
	}
	return FallingObject{}, false
}

// Count возвращает количество живых объектов
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Reset очищает поле перед новой сессией
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make([]*FallingObject, 0, 16)
}

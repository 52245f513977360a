package crdt

// Register представляет LWW-регистр для скалярного поля.
// Хранит значение вместе с причинной меткой последней записи.
// Слияние двух регистров детерминировано: выигрывает метка новее.
type Register struct {
	Value string `json:"v"`
	Stamp Stamp  `json:"s"`
}

// Set применяет локальную запись с новой меткой.
// Метка обязана быть свежее текущей (гарантируется часами актора).
func (r *Register) Set(value string, stamp Stamp) {
	r.Value = value
	r.Stamp = stamp
}

// Merge вливает значение из другой реплики.
// Возвращает true, если значение было обновлено.
func (r *Register) Merge(other Register) bool {
	if other.Stamp.IsZero() {
		return false
	}
	if r.Stamp.IsZero() || other.Stamp.Newer(r.Stamp) {
		r.Value = other.Value
		r.Stamp = other.Stamp
		return true
	}
	return false
}

// ListRegister представляет LWW-регистр для списка строк (например, авторов).
// Список заменяется целиком; порядок элементов сохраняется как записан.
type ListRegister struct {
	Values []string `json:"v,omitempty"`
	Stamp  Stamp    `json:"s"`
}

// Set применяет локальную запись списка с новой меткой.
func (l *ListRegister) Set(values []string, stamp Stamp) {
	l.Values = append([]string(nil), values...)
	l.Stamp = stamp
}

// Merge вливает список из другой реплики по правилу LWW.
// Возвращает true, если список был обновлен.
func (l *ListRegister) Merge(other ListRegister) bool {
	if other.Stamp.IsZero() {
		return false
	}
	if l.Stamp.IsZero() || other.Stamp.Newer(l.Stamp) {
		l.Values = append([]string(nil), other.Values...)
		l.Stamp = other.Stamp
		return true
	}
	return false
}

// Flag представляет LWW-флаг присутствия элемента коллекции
// (используется для отдельных тегов: добавлен/удален).
type Flag struct {
	Present bool  `json:"p"`
	Stamp   Stamp `json:"s"`
}

// Merge вливает флаг из другой реплики по правилу LWW.
// Возвращает true, если флаг был обновлен.
func (f *Flag) Merge(other Flag) bool {
	if other.Stamp.IsZero() {
		return false
	}
	if f.Stamp.IsZero() || other.Stamp.Newer(f.Stamp) {
		f.Present = other.Present
		f.Stamp = other.Stamp
		return true
	}
	return false
}

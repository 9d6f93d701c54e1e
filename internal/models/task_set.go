package models

// Наборы задач хранятся как списки идентификаторов без повторов.
// Порядок сохраняется только для стабильного вывода, семантика - множество.

// NormalizeTasks убирает пустые идентификаторы и повторы
func NormalizeTasks(tasks []string) []string {
	out := make([]string, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// UnionTasks объединяет наборы, новые элементы добавляются в конец
func UnionTasks(base []string, add ...string) []string {
	return NormalizeTasks(append(append([]string{}, base...), add...))
}

// RemoveTasks возвращает base без элементов remove
func RemoveTasks(base []string, remove ...string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, t := range remove {
		drop[t] = struct{}{}
	}
	out := make([]string, 0, len(base))
	for _, t := range NormalizeTasks(base) {
		if _, ok := drop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// ContainsTask проверяет наличие задачи в наборе
func ContainsTask(set []string, task string) bool {
	for _, t := range set {
		if t == task {
			return true
		}
	}
	return false
}

// SameTasks сравнивает наборы без учета порядка
func SameTasks(a, b []string) bool {
	a, b = NormalizeTasks(a), NormalizeTasks(b)
	if len(a) != len(b) {
		return false
	}
	for _, t := range a {
		if !ContainsTask(b, t) {
			return false
		}
	}
	return true
}

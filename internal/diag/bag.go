package diag

import (
	"fmt"
	"sort"
)

type Bag struct {
	items []Finding
	max   int // 0 значит без лимита
}

func NewBag(max int) *Bag {
	if max < 0 {
		max = 0
	}
	return &Bag{
		items: make([]Finding, 0, min(max, 64)),
		max:   max,
	}
}

// Add добавляет находку, учитывая лимит.
// Возвращает false, если находка не добавлена (достигнут лимит).
func (b *Bag) Add(f Finding) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, f)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice находок.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Finding {
	return b.items
}

// Merge объединяет находки из другого Bag.
// Увеличивает max, если нужно вместить все элементы.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if b.max > 0 && newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Filter keeps only the findings for which keep returns true.
func (b *Bag) Filter(keep func(Finding) bool) {
	out := b.items[:0]
	for _, f := range b.items {
		if keep(f) {
			out = append(out, f)
		}
	}
	b.items = out
}

// Sort сортирует находки по: path, line, column, code
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	Sort(b.items)
}

// Sort orders findings by path, line, column and code, keeping emission order for ties.
func Sort(items []Finding) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.Code < dj.Code
	})
}

// простая дедупликация (по Code+Location+Message)
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	newitems := make([]Finding, 0, len(b.items))
	for _, f := range b.items {
		key := fmt.Sprintf("%s:%s:%s", f.Code, f.Location(), f.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, f)
	}
	b.items = newitems
}

// ByCode groups findings by code; order lists codes in first-seen order.
func (b *Bag) ByCode() (order []Code, groups map[Code][]Finding) {
	groups = make(map[Code][]Finding)
	for _, f := range b.items {
		if _, ok := groups[f.Code]; !ok {
			order = append(order, f.Code)
		}
		groups[f.Code] = append(groups[f.Code], f)
	}
	return order, groups
}

// CountByCode returns the number of findings per code.
func (b *Bag) CountByCode() map[Code]int {
	out := make(map[Code]int)
	for _, f := range b.items {
		out[f.Code]++
	}
	return out
}

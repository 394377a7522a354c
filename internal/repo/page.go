package repo

import "gorm.io/gorm"

// Page bounds an admin listing. A zero value disables pagination so older
// callers keep their full-listing behavior.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) paginate(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

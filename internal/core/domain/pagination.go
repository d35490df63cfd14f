package domain

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a clamped limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps limit into [1, MaxPageLimit] (0 means the default) and
// negative offsets to zero.
func NewPage(limit, offset int) Page {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// PageInfo describes a returned window against the full result size.
type PageInfo struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

func (p Page) Info(total int64) PageInfo {
	return PageInfo{
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}

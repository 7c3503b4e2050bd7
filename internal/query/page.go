package query

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a zero-based page
type PageRequest struct {
	Page int
	Size int
}

func (r PageRequest) normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Page is one slice of a filtered, ordered list
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// Paginate cuts items down to the requested page. Pages past the end are empty.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.normalize()

	total := len(items)
	start := total
	if req.Page <= total/req.Size {
		start = req.Page * req.Size
	}
	end := min(start+req.Size, total)

	content := make([]T, end-start)
	copy(content, items[start:end])

	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    (total + req.Size - 1) / req.Size,
		Size:          req.Size,
		Number:        req.Page,
	}
}

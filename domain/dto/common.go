package dto

// PageRequest query ?page=&limit= ของ list endpoint
type PageRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// Resolve ค่าที่ไม่ได้ส่งมาใช้ page 1 / defaultLimit
func (p PageRequest) Resolve(defaultLimit int) (page, limit, offset int) {
	page, limit = p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

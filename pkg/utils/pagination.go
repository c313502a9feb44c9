package utils

// 订单列表分页，账户页默认一屏 20 条
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Pagination 分页请求参数
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageResult 分页响应结果
type PageResult struct {
	List    interface{} `json:"list"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	HasMore bool        `json:"hasMore"`
}

// GetPageOffset 规范化页码与条数并返回偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return (p.Page - 1) * p.Limit, p.Limit
}

// NewPageResult 需在 GetPageOffset 之后调用
func NewPageResult(list interface{}, total int64, p Pagination) *PageResult {
	return &PageResult{
		List:    list,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: int64(p.Page*p.Limit) < total,
	}
}

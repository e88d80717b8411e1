package dto

type SetCartItemDTO struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"` //0或負數代表移除
}

type CartEntryDTO struct {
	Book     BookDTO `json:"book"`
	Quantity int     `json:"quantity"`
}

type WishlistItemDTO struct {
	BookID uint `json:"book_id"`
}

package dto

type UpdatePageDTO struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UploadImageResponse struct {
	URL string `json:"url"`
}

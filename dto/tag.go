package dto

type TagRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	HexColor string `json:"hex_color" binding:"omitempty,hexcolor,max=7"`
}

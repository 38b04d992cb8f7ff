package dto

type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
}

type FCMTokenRequest struct {
	Token string `json:"fcm_token"`
}

package model

// User is a registered account. Email is stored lowercase and unique;
// PasswordHash is the only credential representation. Verified flips
// from 0 to 1 on the first successful OTP consumption and never back.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
	PasswordHash string `json:"-"`
	Verified     int    `json:"verified"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}

package users

import "time"

type User struct {
	ID        int64      `json:"id"`
	UID       string     `json:"uid"`
	Phone     string     `json:"phone"`
	Password  string     `json:"-"`
	Name      *string    `json:"name"`
	IsAdmin   bool       `json:"is_admin"`
	Brightday *time.Time `json:"brightday"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Address struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Label     *string   `json:"label"`
	Region    *string   `json:"region"`
	City      *string   `json:"city"`
	Street    *string   `json:"street"`
	ZipCode   *string   `json:"zip_code"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

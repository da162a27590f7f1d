package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User описывает учётную запись покупателя или администратора
type User struct {
	ID           int64
	Name         string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

func NewUser(name, phone, passwordHash, role string) *User {
	return &User{
		Name:         name,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         role,
	}
}

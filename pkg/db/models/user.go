package models

// User is the operator identity. The password hash never leaves the backend.
type User struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"column:username;not null;uniqueIndex:ux_users_username" json:"username"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	FullName     string `gorm:"column:full_name;not null" json:"fullName"`
	Email        string `gorm:"column:email;not null" json:"email"`
	Department   string `gorm:"column:department;not null;default:'general'" json:"department"`
}

func (User) TableName() string {
	return "users"
}

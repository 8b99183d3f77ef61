package db_models

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Phone        string `gorm:"size:15"`
	Role         string `gorm:"size:16"`

	Orders []Order `gorm:"foreignKey:UserID"`
}

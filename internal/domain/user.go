package domain

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool { return r == RoleBuyer || r == RoleSeller }

type User struct {
	ID        int64  `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Company   string `db:"company" json:"company"`
	Position  string `db:"position" json:"position"`
	Role      Role   `db:"role" json:"type"`
	Active    bool   `db:"active" json:"is_active"`
	Hash      string `db:"password_hash" json:"-"`
	CreatedAt string `db:"created_at" json:"-"`
}

type Contact struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"-"`
	City      string `db:"city" json:"city"`
	Street    string `db:"street" json:"street"`
	House     string `db:"house" json:"house"`
	Structure string `db:"structure" json:"structure"`
	Building  string `db:"building" json:"building"`
	Apartment string `db:"apartment" json:"apartment"`
	Phone     string `db:"phone" json:"phone"`
}

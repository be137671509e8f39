package repository

// Entities lists every persisted entity.
func Entities() []any {
	return []any{
		&BusinessEntity{},
		&UserEntity{},
		&CustomerEntity{},
		&ReviewRequestEntity{},
		&SuppressionEntity{},
		&EventEntity{},
	}
}

package postgres

// Postgres implements the model.Model store interface over gorm.
type Postgres struct {
}

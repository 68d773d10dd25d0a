package domain

import "time"

// EmployeeRole разделяет права персонала на кассе.
type EmployeeRole string

const (
	// EmployeeRoleCashier — кассир: оформление продаж.
	EmployeeRoleCashier EmployeeRole = "cashier"
	// EmployeeRoleManager — менеджер: плюс пополнение склада и отчёты.
	EmployeeRoleManager EmployeeRole = "manager"
)

// Employee — сотрудник магазина. PasswordHash хранит bcrypt-хеш,
// открытый пароль нигде не сохраняется.
type Employee struct {
	ID           string
	Login        string
	Name         string
	PasswordHash string
	Role         EmployeeRole
	CreatedAt    time.Time
}

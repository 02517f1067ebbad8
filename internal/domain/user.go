package domain

import (
	"time"
)

type Role string

const (
	RoleEmpleado      Role = "Empleado"
	RoleJefeArea      Role = "JefeArea"
	RoleAdministrador Role = "Administrador"
	RoleSuperUsuario  Role = "SuperUsuario"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Nomina       *int64     `json:"nomina"` // número de nómina; solo sindicalizados lo tienen
	AreaID       *int64     `json:"areaID"`
	GrupoID      *int64     `json:"grupoID"`
	FechaIngreso *time.Time `json:"fechaIngreso"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	Version      int32      `json:"-"`
}

// AntiguedadEnAnios calcula los años de servicio cumplidos al cierre del año
// indicado. Devuelve 0 si el empleado no tiene fecha de ingreso registrada.
func (u *User) AntiguedadEnAnios(anio int) int {
	if u.FechaIngreso == nil {
		return 0
	}
	corte := time.Date(anio, time.December, 31, 0, 0, 0, 0, time.UTC)
	antiguedad := corte.Year() - u.FechaIngreso.Year()
	aniversario := time.Date(corte.Year(), u.FechaIngreso.Month(), u.FechaIngreso.Day(), 0, 0, 0, 0, time.UTC)
	if aniversario.After(corte) {
		antiguedad--
	}
	if antiguedad < 0 {
		return 0
	}
	return antiguedad
}

package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

var nombres = []string{
	"José", "María", "Juan", "Guadalupe", "Francisco", "Verónica", "Luis",
	"Alejandra", "Miguel", "Fernanda", "Carlos", "Daniela", "Jorge", "Patricia",
	"Ricardo", "Gabriela", "Eduardo", "Sofía", "Raúl", "Carmen",
}

var apellidos = []string{
	"Hernández", "García", "Martínez", "López", "González", "Pérez",
	"Rodríguez", "Sánchez", "Ramírez", "Cruz", "Flores", "Gómez", "Morales",
	"Vázquez", "Reyes", "Jiménez", "Torres", "Díaz", "Gutiérrez", "Mendoza",
}

func GenerarNombreAleatorio() string {
	return nombres[rand.Intn(len(nombres))] + " " +
		apellidos[rand.Intn(len(apellidos))] + " " +
		apellidos[rand.Intn(len(apellidos))]
}

var reemplazosAcentos = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
)

var digitos = "0123456789"

// GenerarUsername arma un usuario a partir del nombre completo: primera letra
// del nombre más el primer apellido, sin acentos, con dígitos al final.
func GenerarUsername(nombreCompleto string) string {
	partes := strings.Fields(strings.ToLower(nombreCompleto))
	username := ""
	if len(partes) > 0 {
		username += partes[0][:1]
	}
	if len(partes) > 1 {
		username += partes[1]
	}
	username = reemplazosAcentos.Replace(username)

	for i := 0; i < rand.Intn(3)+1; i++ {
		username += string(digitos[rand.Intn(len(digitos))])
	}
	return username
}

func GenerarOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letras = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerarPassword(longitud int) string {
	password := make([]rune, longitud)
	for i := range password {
		password[i] = letras[rand.Intn(len(letras))]
	}
	return string(password)
}

var roles = []domain.Role{
	domain.RoleEmpleado,
	domain.RoleEmpleado,
	domain.RoleEmpleado,
	domain.RoleJefeArea,
}

func GenerarRoleAleatorio() domain.Role {
	return roles[rand.Intn(len(roles))]
}

// GenerarEmpleadoAleatorio produce un empleado sindicalizado de prueba con
// nómina y fecha de ingreso aleatorias dentro de los últimos 30 años.
func GenerarEmpleadoAleatorio(password, dominioCorreo string, nomina int64) (*domain.User, error) {
	nombre := GenerarNombreAleatorio()
	username := GenerarUsername(nombre)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ingreso := time.Now().AddDate(-rand.Intn(30), -rand.Intn(12), -rand.Intn(28))
	ingreso = time.Date(ingreso.Year(), ingreso.Month(), ingreso.Day(), 0, 0, 0, 0, time.UTC)

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     nombre,
		Email:        username + "@" + dominioCorreo,
		Role:         GenerarRoleAleatorio(),
		Nomina:       &nomina,
		FechaIngreso: &ingreso,
	}, nil
}

// Package ausencias valida el porcentaje de ausencia de un grupo de trabajo
// para una fecha. La decisión (Evaluar) es pura; el Validador solo junta los
// datos y delega en ella, de modo que la misma regla corre en la validación
// previa y en la verificación atómica al confirmar.
package ausencias

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

// Umbrales son los porcentajes vigentes para un grupo y fecha: el techo duro
// y el umbral de aviso. Vienen de configuración, con excepciones por
// (grupo, fecha) que el repositorio ya resolvió.
type Umbrales struct {
	Maximo decimal.Decimal `json:"maximo"`
	Aviso  decimal.Decimal `json:"aviso"`
}

// Conteo es la foto de ausencias de un grupo en una fecha. Ausentes incluye
// vacaciones activas y ausencias externas (incapacidades, permisos).
type Conteo struct {
	TotalEmpleados int `json:"totalEmpleados"`
	Ausentes       int `json:"ausentes"`
}

// Resultado es el veredicto de admitir una ausencia más.
type Resultado struct {
	Permitido            bool            `json:"permitido"`
	Advertencia          bool            `json:"advertencia"`
	PorcentajeActual     decimal.Decimal `json:"porcentajeActual"`
	PorcentajeProyectado decimal.Decimal `json:"porcentajeProyectado"`
	Motivo               string          `json:"motivo,omitempty"`
}

// Evaluar decide si el grupo admite una ausencia adicional en la fecha.
// El techo es inclusivo: un proyectado exactamente igual al máximo se admite.
// En grupos tan chicos que una sola ausencia rebasa el techo se admite de
// todos modos la primera, para que el grupo no quede congelado.
func Evaluar(conteo Conteo, umbrales Umbrales) Resultado {
	if conteo.TotalEmpleados <= 0 {
		return Resultado{
			Permitido: false,
			Motivo:    "el grupo no tiene empleados activos",
		}
	}

	total := decimal.NewFromInt(int64(conteo.TotalEmpleados))
	actual := decimal.NewFromInt(int64(conteo.Ausentes)).Div(total).Mul(cien)
	proyectado := decimal.NewFromInt(int64(conteo.Ausentes + 1)).Div(total).Mul(cien)

	res := Resultado{
		PorcentajeActual:     actual,
		PorcentajeProyectado: proyectado,
	}

	switch {
	case proyectado.LessThanOrEqual(umbrales.Maximo):
		res.Permitido = true
	case conteo.Ausentes == 0:
		res.Permitido = true
	default:
		res.Motivo = "se excedería el porcentaje máximo de ausencia del grupo"
	}

	if res.Permitido && proyectado.GreaterThanOrEqual(umbrales.Aviso) {
		res.Advertencia = true
	}
	return res
}

// Datos es lo que el validador necesita del almacén. ConteoAusencias debe
// excluir al empleado indicado cuando excluirEmpleadoID > 0, para que mover
// un día existente no se cuente a sí mismo.
type Datos interface {
	ConteoAusencias(ctx context.Context, grupoID int64, fecha time.Time, excluirEmpleadoID int64) (Conteo, error)
	UmbralesPara(ctx context.Context, grupoID int64, fecha time.Time) (Umbrales, error)
}

type Validador struct {
	datos  Datos
	logger *slog.Logger
}

func NuevoValidador(datos Datos, logger *slog.Logger) *Validador {
	return &Validador{datos: datos, logger: logger}
}

// Validar proyecta una ausencia adicional del grupo sobre la fecha. Es una
// consulta: el resultado puede quedar obsoleto y la confirmación definitiva
// vuelve a evaluarse dentro de la transacción de escritura.
func (v *Validador) Validar(ctx context.Context, grupoID int64, fecha time.Time, excluirEmpleadoID int64) (Resultado, error) {
	conteo, err := v.datos.ConteoAusencias(ctx, grupoID, fecha, excluirEmpleadoID)
	if err != nil {
		return Resultado{}, err
	}
	umbrales, err := v.datos.UmbralesPara(ctx, grupoID, fecha)
	if err != nil {
		return Resultado{}, err
	}

	res := Evaluar(conteo, umbrales)
	if res.Advertencia {
		v.logger.Warn("porcentaje de ausencia cerca del techo",
			slog.Int64("grupoID", grupoID),
			slog.Time("fecha", fecha),
			slog.String("proyectado", res.PorcentajeProyectado.StringFixed(2)),
		)
	}
	return res, nil
}

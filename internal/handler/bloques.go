package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/bloques"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

func (h *Handler) operadorID(r *http.Request) (int64, error) {
	subString, ok := r.Context().Value(SubCtxKey).(string)
	if !ok {
		return 0, errors.New("sesión sin identificador")
	}
	return strconv.ParseInt(subString, 10, 64)
}

func (h *Handler) GetBloques(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	anio, err := h.anioParam(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	ciclo, err := h.repository.BloquesDelGrupo(r.Context(), grupo.ID, anio)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "bloques obtenidos", ciclo)
}

// GenerarBloques crea el ciclo de reservación del grupo para el año objetivo:
// bloques consecutivos por antigüedad más el bloque cola. Los bloques nacen en
// estado Activo y no se publican hasta que un jefe los aprueba.
func (h *Handler) GenerarBloques(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	var req struct {
		AnioObjetivo   int    `json:"anioObjetivo" validate:"required,min=2000,max=2200"`
		FechaInicio    string `json:"fechaInicio" validate:"required,datetime=2006-01-02"`
		SoloSimulacion bool   `json:"soloSimulacion"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	operador, err := h.operadorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	fechaInicio, _ := time.Parse(time.DateOnly, req.FechaInicio)

	empleados, err := h.repository.EmpleadosPorGrupo(r.Context(), grupo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	inhabiles, err := h.repository.DiasInhabiles(r.Context(), req.AnioObjetivo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ciclo, err := h.servicios.Generador.Generar(bloques.ParametrosGeneracion{
		Grupo:             grupo,
		Empleados:         empleados,
		FechaInicio:       fechaInicio,
		AnioObjetivo:      req.AnioObjetivo,
		PersonasPorBloque: h.config.Vacaciones.PersonasPorBloque,
		DuracionHoras:     h.config.Vacaciones.DuracionBloqueHrs,
		DiasInhabiles:     inhabiles,
		GeneradoPor:       operador,
	})
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if len(ciclo) == 0 {
		h.errorResponse(w, r, "el grupo no tiene empleados elegibles para reservar")
		return
	}

	if req.SoloSimulacion {
		h.successResponse(w, r, "simulación de bloques", ciclo)
		return
	}

	if err := h.repository.GuardarBloques(r.Context(), ciclo); err != nil {
		if errors.Is(err, domain.ErrConflictoConcurrencia) {
			h.errorResponse(w, r, "el grupo ya tiene bloques para ese año")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "bloques generados", ciclo)
}

// AprobarBloques publica el ciclo y notifica a los empleados del primer
// bloque que su ventana está por abrir.
func (h *Handler) AprobarBloques(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	var req struct {
		AnioObjetivo int `json:"anioObjetivo" validate:"required,min=2000,max=2200"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	operador, err := h.operadorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	aprobados, err := h.repository.AprobarBloques(r.Context(), grupo.ID, req.AnioObjetivo, operador)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if aprobados == 0 {
		h.errorResponse(w, r, "el grupo no tiene bloques pendientes de aprobar")
		return
	}

	h.notificarPrimerBloque(r, grupo, req.AnioObjetivo)

	h.successResponse(w, r, fmt.Sprintf("%d bloques aprobados", aprobados), nil)
}

func (h *Handler) notificarPrimerBloque(r *http.Request, grupo *domain.GrupoTrabajo, anio int) {
	ciclo, err := h.repository.BloquesDelGrupo(r.Context(), grupo.ID, anio)
	if err != nil || len(ciclo) == 0 {
		return
	}

	primero := ciclo[0]
	for _, a := range primero.Asignaciones {
		empleado, err := h.repository.Empleado(r.Context(), a.EmpleadoID)
		if err != nil {
			continue
		}
		evento := domain.NuevoEvento(
			domain.EventoBloqueActivado,
			empleado.ID,
			empleado.Email,
			empleado.FullName,
			"Tu bloque de reservación fue aprobado",
			fmt.Sprintf("Tu ventana para reservar vacaciones abre el %s.", primero.Bloque.Inicio.Format("02/01/2006 15:04")),
			map[string]any{"bloqueID": primero.Bloque.ID, "posicion": a.Posicion},
		)
		if err := h.servicios.Publicador.Publicar(r.Context(), evento); err != nil {
			h.logInternalServerError(r, err)
		}
	}
}

// CambiarEmpleadoDeBloque mueve administrativamente a un empleado a otro
// bloque del mismo ciclo. Siempre queda al final del destino; las posiciones
// existentes no se recorren.
func (h *Handler) CambiarEmpleadoDeBloque(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmpleadoID    int64  `json:"empleadoID" validate:"required"`
		BloqueOrigen  int64  `json:"bloqueOrigen" validate:"required"`
		BloqueDestino int64  `json:"bloqueDestino" validate:"required"`
		Motivo        string `json:"motivo" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	operador, err := h.operadorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	origen, err := h.repository.BloquePorID(r.Context(), req.BloqueOrigen)
	if err != nil {
		h.errorResponse(w, r, "el bloque de origen no existe")
		return
	}
	destino, err := h.repository.BloquePorID(r.Context(), req.BloqueDestino)
	if err != nil {
		h.errorResponse(w, r, "el bloque de destino no existe")
		return
	}

	nueva, err := bloques.PlanearReasignacion(origen, destino, req.EmpleadoID, operador, req.Motivo)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	nueva.Observaciones = req.Motivo

	var origenID int64
	for _, a := range origen.Asignaciones {
		if a.EmpleadoID == req.EmpleadoID && a.Estado != domain.AsignacionTransferida {
			origenID = a.ID
			break
		}
	}

	if err := h.repository.ReasignarEmpleado(r.Context(), origenID, nueva); err != nil {
		h.respondErr(w, r, err)
		return
	}

	datos, _ := json.Marshal(map[string]any{
		"bloqueOrigen":  req.BloqueOrigen,
		"bloqueDestino": req.BloqueDestino,
		"posicion":      nueva.Posicion,
	})
	registro := &domain.RegistroAuditoria{
		OperadorID:    operador,
		EmpleadoID:    req.EmpleadoID,
		Accion:        "cambio_de_bloque",
		Justificacion: req.Motivo,
		Datos:         string(datos),
	}
	if err := h.repository.RegistrarAuditoria(r.Context(), registro); err != nil {
		h.logInternalServerError(r, err)
	}

	h.successResponse(w, r, "empleado reasignado", nueva)
}

// ActualizarEstadosBloques dispara el barrido de estados a demanda; el mismo
// barrido corre de forma periódica en segundo plano.
func (h *Handler) ActualizarEstadosBloques(w http.ResponseWriter, r *http.Request) {
	cambiados, err := h.servicios.Barrido.Ejecutar(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "barrido ejecutado", map[string]int{"gruposActualizados": cambiados})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/ausencias"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

// ValidarAusencia es la consulta previa del techo de ausencias para una fecha.
// Es solo informativa: la decisión definitiva se repite dentro de la
// transacción de escritura, así que aquí se puede servir desde caché.
func (h *Handler) ValidarAusencia(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	fecha, err := time.Parse(time.DateOnly, r.URL.Query().Get("fecha"))
	if err != nil {
		h.errorResponse(w, r, "el parámetro fecha debe tener formato AAAA-MM-DD")
		return
	}

	var excluir int64
	if param := r.URL.Query().Get("excluirEmpleadoID"); param != "" {
		excluir, err = strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "el parámetro excluirEmpleadoID es inválido")
			return
		}
	}

	llave := fmt.Sprintf("ausencias_%d_%s_%d", grupo.ID, fecha.Format(time.DateOnly), excluir)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if cacheado, err := h.redisClient.Get(ctx, llave).Result(); err == nil {
		var resultado ausencias.Resultado
		if err := json.Unmarshal([]byte(cacheado), &resultado); err == nil {
			h.successResponse(w, r, "validación obtenida", resultado)
			return
		}
	} else if !errors.Is(err, redis.Nil) {
		h.logInternalServerError(r, err)
		// caché caído: seguir contra la base de datos
	}

	resultado, err := h.servicios.Validador.Validar(r.Context(), grupo.ID, fecha, excluir)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if cuerpo, err := json.Marshal(resultado); err == nil {
		ttl := time.Duration(h.config.Redis.AusenciasTTL) * time.Second
		if err := h.redisClient.Set(ctx, llave, cuerpo, ttl).Err(); err != nil {
			h.logInternalServerError(r, err)
		}
	}

	h.successResponse(w, r, "validación obtenida", resultado)
}

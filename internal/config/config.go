package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"Administrador del Sistema"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 días, en segundos
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		Sender     string `env:"SENDER,required"`
		UserDomain string `env:"USER_DOMAIN" envDefault:"tiempolibre.mx"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD,required"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"10"`
		AusenciasTTL     int    `env:"AUSENCIAS_TTL" envDefault:"60"` // segundos
	} `envPrefix:"REDIS_"`
	Vacaciones struct {
		// FechaAncla es el punto de referencia compartido por todas las reglas
		// de turnos. Formato AAAA-MM-DD.
		FechaAncla string `env:"FECHA_ANCLA" envDefault:"2025-09-15"`

		// PorcentajeAusenciaMaximo es el techo duro, expresado en porcentaje
		// (20 = 20%). Una ausencia que lo haga superar se rechaza.
		PorcentajeAusenciaMaximo float64 `env:"PORCENTAJE_AUSENCIA_MAXIMO" envDefault:"20"`
		// PorcentajeAviso es el umbral informativo: no bloquea, solo marca la
		// respuesta con una advertencia.
		PorcentajeAviso float64 `env:"PORCENTAJE_AVISO" envDefault:"4"`

		// LookaheadHoras define cuánto antes del inicio de su bloque un
		// empleado ve el estado TurnoSiguiente.
		LookaheadHoras int `env:"LOOKAHEAD_HORAS" envDefault:"48"`

		// Parámetros de generación de bloques de reservación.
		PersonasPorBloque int `env:"PERSONAS_POR_BLOQUE" envDefault:"4"`
		DuracionBloqueHrs int `env:"DURACION_BLOQUE_HORAS" envDefault:"48"`

		// Semanas ISO excluidas de la asignación automática (Navidad y Año
		// Nuevo por omisión).
		SemanasExcluidas   []int `env:"SEMANAS_EXCLUIDAS" envDefault:"51,52,1,2" envSeparator:","`
		MaxDiasAutomaticos int   `env:"MAX_DIAS_AUTOMATICOS" envDefault:"5"`

		// Ajuste opcional de Semana Santa: fechas posteriores a la fecha final
		// retroceden 7 días para el cálculo de turnos.
		SemanaSantaFechaFin string `env:"SEMANA_SANTA_FECHA_FIN"`
	} `envPrefix:"VACACIONES_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// devolver solo el primer error mantiene el log legible
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if _, err := time.Parse("2006-01-02", cfg.Vacaciones.FechaAncla); err != nil {
		return nil, errors.New("VACACIONES_FECHA_ANCLA debe tener formato AAAA-MM-DD")
	}

	return cfg, nil
}

// FechaAnclaTime devuelve la fecha ancla ya parseada, a medianoche UTC.
func (c *Config) FechaAnclaTime() time.Time {
	t, _ := time.Parse("2006-01-02", c.Vacaciones.FechaAncla)
	return t
}

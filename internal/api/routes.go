package api

import (
	"net/http"

	"physioplan/server/internal/domain"
	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every HTTP endpoint to its handler and middleware chain.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	patientService service.PatientService,
	exerciseService service.ExerciseService,
	scheduleService service.ScheduleService,
	progressService service.ProgressService,
) {
	authHandler := NewAuthHandler(authService)
	patientHandler := NewPatientHandler(patientService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	scheduleHandler := NewScheduleHandler(scheduleService)
	progressHandler := NewProgressHandler(progressService)

	authMiddleware := AuthMiddleware(jwtSecret)
	coachOnly := RoleMiddleware(domain.RoleCoach, domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Patient Routes ---
		patientGroup := protected.Group("/patients")
		{
			// A client's own record; no coach role required.
			patientGroup.GET("/me", patientHandler.GetOwnPatient)

			patientGroup.POST("", coachOnly, patientHandler.CreatePatient)
			patientGroup.GET("", coachOnly, patientHandler.GetPatients)
			patientGroup.GET("/:id", patientHandler.GetPatient)
			patientGroup.PUT("/:id", coachOnly, patientHandler.UpdatePatient)
			patientGroup.DELETE("/:id", coachOnly, patientHandler.DeletePatient)
			patientGroup.POST("/:id/link", coachOnly, patientHandler.LinkClientAccount)

			// --- Scheduling, per patient ---
			patientGroup.GET("/:id/slots", scheduleHandler.GetAvailableSlots)
			patientGroup.GET("/:id/schedule", scheduleHandler.GetPatientSchedule)
			patientGroup.POST("/:id/schedule", coachOnly, scheduleHandler.AssignExercise)

			// --- Progress ---
			patientGroup.PUT("/:id/progress", progressHandler.RecordProgress)
			patientGroup.GET("/:id/progress", progressHandler.GetProgress)
		}

		// --- Exercise Library Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", coachOnly, exerciseHandler.CreateExercise)
			exerciseGroup.GET("", coachOnly, exerciseHandler.GetExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:id", coachOnly, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", coachOnly, exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/media", coachOnly, exerciseHandler.GetMediaUploadURL)
			exerciseGroup.GET("/:id/media", exerciseHandler.GetMediaDownloadURL)
		}

		// --- Coach Calendar Routes ---
		scheduleGroup := protected.Group("/schedule")
		{
			scheduleGroup.GET("/day", coachOnly, scheduleHandler.GetDaySchedule)
			scheduleGroup.GET("/roster", coachOnly, scheduleHandler.GetWeeklyRoster)
			scheduleGroup.DELETE("/:id", coachOnly, scheduleHandler.RemoveScheduled)
			scheduleGroup.PATCH("/:id/completed", scheduleHandler.SetCompleted)
		}
	}
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pawanx64/File-Sharing-Backend/auth/middleware"
	"github.com/pawanx64/File-Sharing-Backend/handlers"
)

func RegisterFileRoutes(r gin.IRouter, h *handlers.FileHandler, authRequired gin.HandlerFunc) {
	r.GET("/download/:id", h.DownloadInfo) // public
	r.GET("/download/:id/qr", h.DownloadQR)

	r.POST("/upload", authRequired, h.Upload)
	r.GET("/myfiles", authRequired, h.MyFiles)
	r.DELETE("/file/:id", authRequired, h.Delete)
}

func RegisterAccountRoutes(r gin.IRouter, h *handlers.AccountHandler, authRequired gin.HandlerFunc, otpLimiter *middleware.RateLimiter) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/changepassword", authRequired, h.ChangePassword)

	otp := r.Group("/", otpLimiter.Middleware())
	otp.POST("/forgot-password", h.ForgotPassword)
	otp.POST("/verify-otp", h.VerifyOTP)
	otp.POST("/reset-password", h.ResetPassword)
}

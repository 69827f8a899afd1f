package server

import (
	"encoding/json"
	"io"
	"net/http"

	"articlehub/services/api/internal/app"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.auth.Register(r.Context(), app.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
	})
	if err != nil {
		writeAppError(w, r, "register", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "user registered", user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusCreated, loginResponse{
		Success: true,
		Message: "login successful",
		Token:   res.Token,
		Data:    res.User,
	})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookwise/bookguard/pkg/policy"
)

// NewRouter wires the resource routes. Reads exist for every resource a
// role can hold a grant on; writes exist only where the matrix grants any
// role a write at all (book updates/inserts, order status updates).
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/books", handler.list(policy.ResourceBooks))
	r.Get("/customers", handler.list(policy.ResourceCustomers))
	r.Get("/orders", handler.list(policy.ResourceOrders))
	r.Get("/orders/{id}/items", handler.listOrderItems)

	r.Post("/books", handler.insertBooks)
	r.Patch("/books/{id}", handler.update(policy.ResourceBooks))
	r.Patch("/orders/{id}", handler.update(policy.ResourceOrders))

	r.Post("/sessions", handler.createSession)
	r.Delete("/sessions/{id}", handler.deleteSession)

	return r
}

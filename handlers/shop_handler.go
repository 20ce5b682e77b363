package handlers

import (
	"net/http"

	"fleetledger/models"
	"fleetledger/services"
)

type ShopHandler struct {
	*Base
	Shops *services.ShopService
}

func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var shop models.Shop
	if !h.decode(w, r, &shop) {
		return
	}
	created, err := h.Shops.Create(r.Context(), account(r), &shop)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Shop created", created)
}

func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	shops, err := h.Shops.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", shops)
}

func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Shops.Get(r.Context(), account(r), param(r, "shopID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", shop)
}

func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
	var shop models.Shop
	if !h.decode(w, r, &shop) {
		return
	}
	updated, err := h.Shops.Update(r.Context(), account(r), param(r, "shopID"), &shop)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Shop updated", updated)
}

func (h *ShopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Shops.Delete(r.Context(), account(r), param(r, "shopID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Shop deleted", nil)
}

// AddAccount books a khata line: credit is goods taken, payment is money paid.
func (h *ShopHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.ShopKhataAccount
	if !h.decode(w, r, &acc) {
		return
	}
	added, err := h.Shops.AddAccount(r.Context(), account(r), param(r, "shopID"), acc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Entry added", added)
}

func (h *ShopHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.Shops.DeleteAccount(r.Context(), account(r), param(r, "shopID"), param(r, "accountID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Entry deleted", nil)
}

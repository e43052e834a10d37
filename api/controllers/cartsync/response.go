package cartsync

import (
	cartsvc "github.com/demoforge/demoforge-backend/internal/cartsync"
)

// fetchResponse carries the cart when one exists. An absent cart renders
// as an empty object; clients read that as an empty item list.
type fetchResponse struct {
	Cart *cartsvc.CartDTO `json:"cart,omitempty"`
}

func newFetchResponse(dto *cartsvc.CartDTO) fetchResponse {
	return fetchResponse{Cart: dto}
}

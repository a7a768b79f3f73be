package domain

type OrderRequest struct {
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	SessionID     SessionID `json:"sessionId"`
}

type Order struct {
	ID          string `json:"_id,omitempty"`
	OrderNumber string `json:"orderNumber"`
	Total       Amount `json:"total"`
	Status      string `json:"status,omitempty"`
}

type OrderResponse struct {
	Message string `json:"message,omitempty"`
	Order   Order  `json:"order"`
}

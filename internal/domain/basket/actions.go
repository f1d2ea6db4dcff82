package basket

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action")

// Action names as sent by clients.
const (
	ActionAddItem               = "addItem"
	ActionRemoveItem            = "removeItem"
	ActionUpdateQuantity        = "updateQuantity"
	ActionUpdateDeliveryDetails = "updateDeliveryDetails"
	ActionUpdateCustomerDetails = "updateCustomerDetails"
	ActionClearBasket           = "clearBasket"
)

// Action is one basket operation. The set of implementations is closed.
type Action interface {
	Name() string
	action()
}

type AddItem struct {
	SelectionID string `json:"selectionId"`
	Quantity    int    `json:"quantity"`
}

type RemoveItem struct {
	ItemIndex *int `json:"itemIndex"`
}

type UpdateQuantity struct {
	ItemIndex *int `json:"itemIndex"`
	Quantity  int  `json:"quantity"`
}

type UpdateDeliveryDetails struct {
	DeliveryOption  *DeliveryOption `json:"deliveryOption"`
	DeliveryAddress map[string]any  `json:"deliveryAddress"`
	ProviderDetails map[string]any  `json:"providerDetails"`
}

type UpdateCustomerDetails struct {
	CustomerDetails *CustomerDetails `json:"customerDetails"`
}

type ClearBasket struct{}

func (AddItem) Name() string               { return ActionAddItem }
func (RemoveItem) Name() string            { return ActionRemoveItem }
func (UpdateQuantity) Name() string        { return ActionUpdateQuantity }
func (UpdateDeliveryDetails) Name() string { return ActionUpdateDeliveryDetails }
func (UpdateCustomerDetails) Name() string { return ActionUpdateCustomerDetails }
func (ClearBasket) Name() string           { return ActionClearBasket }

func (AddItem) action()               {}
func (RemoveItem) action()            {}
func (UpdateQuantity) action()        {}
func (UpdateDeliveryDetails) action() {}
func (UpdateCustomerDetails) action() {}
func (ClearBasket) action()           {}

// DecodeAction reads a `{"action": ..., ...payload}` body into its variant.
func DecodeAction(data []byte) (Action, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	var a Action
	switch head.Action {
	case ActionAddItem:
		a = &AddItem{}
	case ActionRemoveItem:
		a = &RemoveItem{}
	case ActionUpdateQuantity:
		a = &UpdateQuantity{}
	case ActionUpdateDeliveryDetails:
		a = &UpdateDeliveryDetails{}
	case ActionUpdateCustomerDetails:
		a = &UpdateCustomerDetails{}
	case ActionClearBasket:
		return ClearBasket{}, nil
	case "":
		return nil, missing("action")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, head.Action)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Action, err)
	}

	switch v := a.(type) {
	case *AddItem:
		return *v, nil
	case *RemoveItem:
		return *v, nil
	case *UpdateQuantity:
		return *v, nil
	case *UpdateDeliveryDetails:
		return *v, nil
	case *UpdateCustomerDetails:
		return *v, nil
	}
	return a, nil
}

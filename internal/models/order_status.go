package models

import "fmt"

// InternalStatus is the operator-visible order lifecycle state.
type InternalStatus string

const (
	StatusCreatedPending  InternalStatus = "created_pending"
	StatusPaymentPending  InternalStatus = "payment_pending"
	StatusPaymentFailed   InternalStatus = "payment_failed"
	StatusApproved        InternalStatus = "approved"
	StatusRejected        InternalStatus = "rejected"
	StatusShipped         InternalStatus = "shipped"
	StatusDelivered       InternalStatus = "delivered"
	StatusCancelled       InternalStatus = "cancelled"
	StatusReturnInitiated InternalStatus = "return_initiated"
	StatusReturned        InternalStatus = "returned"
)

// CustomerFacingStatus is the coarse projection shown to customers.
type CustomerFacingStatus string

const (
	FacingConfirmed       CustomerFacingStatus = "confirmed"
	FacingPaymentFailed   CustomerFacingStatus = "payment_failed"
	FacingProcessing      CustomerFacingStatus = "processing"
	FacingShipped         CustomerFacingStatus = "shipped"
	FacingDelivered       CustomerFacingStatus = "delivered"
	FacingCancelled       CustomerFacingStatus = "cancelled"
	FacingReturnRequested CustomerFacingStatus = "return_requested"
	FacingReturned        CustomerFacingStatus = "returned"
)

var transitions = map[InternalStatus][]InternalStatus{
	StatusCreatedPending:  {StatusPaymentPending, StatusApproved, StatusRejected, StatusCancelled},
	StatusPaymentPending:  {StatusApproved, StatusRejected, StatusCancelled, StatusPaymentFailed},
	StatusPaymentFailed:   {StatusPaymentPending, StatusCancelled},
	StatusApproved:        {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusReturnInitiated},
	StatusDelivered:       {StatusReturnInitiated},
	StatusReturnInitiated: {StatusReturned},
	StatusRejected:        nil,
	StatusCancelled:       nil,
	StatusReturned:        nil,
}

var projection = map[InternalStatus]CustomerFacingStatus{
	StatusCreatedPending:  FacingConfirmed,
	StatusPaymentPending:  FacingConfirmed,
	StatusPaymentFailed:   FacingPaymentFailed,
	StatusApproved:        FacingProcessing,
	StatusRejected:        FacingCancelled,
	StatusShipped:         FacingShipped,
	StatusDelivered:       FacingDelivered,
	StatusCancelled:       FacingCancelled,
	StatusReturnInitiated: FacingReturnRequested,
	StatusReturned:        FacingReturned,
}

// Progress ranks along the fulfilment path. Terminal side branches rank at
// the start since nothing further happens to the parcel.
var internalRank = map[InternalStatus]int{
	StatusCreatedPending:  0,
	StatusPaymentPending:  1,
	StatusPaymentFailed:   1,
	StatusRejected:        0,
	StatusCancelled:       0,
	StatusApproved:        2,
	StatusShipped:         3,
	StatusDelivered:       4,
	StatusReturnInitiated: 5,
	StatusReturned:        6,
}

var facingRank = map[CustomerFacingStatus]int{
	FacingConfirmed:       0,
	FacingCancelled:       0,
	FacingPaymentFailed:   1,
	FacingProcessing:      2,
	FacingShipped:         3,
	FacingDelivered:       4,
	FacingReturnRequested: 5,
	FacingReturned:        6,
}

// InternalStatuses lists every lifecycle state.
func InternalStatuses() []InternalStatus {
	return []InternalStatus{
		StatusCreatedPending, StatusPaymentPending, StatusPaymentFailed,
		StatusApproved, StatusRejected, StatusShipped, StatusDelivered,
		StatusCancelled, StatusReturnInitiated, StatusReturned,
	}
}

func (s InternalStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s InternalStatus) CanTransitionTo(next InternalStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s InternalStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CustomerFacing projects the internal state. Unknown states project to
// confirmed, the least advanced customer state.
func (s InternalStatus) CustomerFacing() CustomerFacingStatus {
	if facing, ok := projection[s]; ok {
		return facing
	}
	return FacingConfirmed
}

func (s InternalStatus) Rank() int {
	return internalRank[s]
}

func (s CustomerFacingStatus) Rank() int {
	return facingRank[s]
}

// TransitionError is returned when a lifecycle move is not allowed.
type TransitionError struct {
	From InternalStatus
	To   InternalStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

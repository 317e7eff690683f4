package bookinstances

// InstancePayload is a submitted book instance form. Fields are checked in
// declaration order and every failure is reported.
type InstancePayload struct {
	Book    string `form:"book" json:"book" mod:"trim,escape" validate:"required" msg:"Book must be specified"`
	Imprint string `form:"imprint" json:"imprint" mod:"trim,escape" validate:"required" msg:"Imprint must be specified"`
	Status  string `form:"status" json:"status" mod:"escape" validate:"omitempty,oneof=Available Maintenance Loaned Reserved" msg:"Invalid status"`
	DueBack string `form:"due_back" json:"due_back" mod:"trim" validate:"omitempty,iso8601" msg:"Invalid date"`
}

type ListBookInstancesQuery struct {
	Limit  int    `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status string `query:"status" json:"status,omitempty" mod:"trim" validate:"omitempty,oneof=Available Maintenance Loaned Reserved"`
}

package models

// All lists every model owned by the red packet schema, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Friend{},
		&GroupUser{},
		&RedPacket{},
		&MoneyFlowLog{},
	}
}

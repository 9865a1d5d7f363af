package entity

// UserState этап диалога пользователя с ботом
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // Ожидание команды
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото автомобиля
	StateProcessing    UserState = "processing"     // Идёт анализ повреждений
)

// User пользователь Telegram-бота оценки повреждений
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущий этап диалога
}

// NewUser создаёт пользователя в главном меню
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState переводит пользователя на новый этап диалога
func (u *User) SetState(state UserState) {
	u.State = state
}

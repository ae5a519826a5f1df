package models

// Resource описывает защищаемый ресурс для проверки доступа:
// путь для возврата после логина, требуемые роли и необходимость
// активной подписки. Роль и подписка — ортогональные оси.
type Resource struct {
	Path                       string   // Запрошенный путь, сохраняется для возврата после логина
	RequiredRoles              []string // Роли, которым разрешён доступ (пустой список — любой вошедший)
	RequiresActiveSubscription bool     // Требуется ли активная подписка
}

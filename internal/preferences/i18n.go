package preferences

// Languages lists the supported language codes.
var Languages = []string{"en", "ro", "ru"}

var langDict = map[string]map[string]string{
	"en": {
		"login":            "Login",
		"username":         "Username",
		"password":         "Password",
		"confirm_password": "Confirm password",
		"register":         "Register",
		"home_page":        "Home",
		"welcome":          "Welcome",
		"settings":         "Settings",
		"notifications":    "Notifications",
		"dark_mode":        "Dark Mode",
		"sound":            "Sound",
		"vibration":        "Vibration",
		"language":         "Language",
		"logout":           "Logout",
		"add":              "ADD",
		"no_reminders_yet": "No antibiotic reminders yet.\nUse /add to create your first reminder.",
		"ready":            "READY",
		"due_now":          "DUE NOW",
		"minutes":          "min",
		"taken":            "TAKEN",
		"take_now":         "TAKE NOW",
		"skipped":          "SKIPPED",
		"delete":           "Delete",
		"edit":             "Edit",
		"on":               "on",
		"off":              "off",
		"next_dose":        "Next dose in",
		"doses_taken":      "Doses taken",
		"time_to_take":     "Time to take",
		"reminder_added":   "Reminder added",
		"reminder_updated": "Reminder updated",
		"reminder_deleted": "Reminder deleted",
		"login_ok":         "Login successful",
		"register_ok":      "User registered successfully",
		"days":             "days",
		"no_history":       "No doses recorded yet.",
		"medication":       "Medication",
		"dosage":           "Dosage",
		"frequency":        "Frequency",
		"duration_days":    "Duration (days, empty for none)",
		"notes":            "Notes",
	},
	"ro": {
		"login":            "Autentificare",
		"username":         "Nume utilizator",
		"password":         "Parolă",
		"confirm_password": "Confirmă parola",
		"register":         "Înregistrare",
		"home_page":        "Acasă",
		"welcome":          "Bine ați venit",
		"settings":         "Setări",
		"notifications":    "Notificări",
		"dark_mode":        "Mod întunecat",
		"sound":            "Sunet",
		"vibration":        "Vibrație",
		"language":         "Limbă",
		"logout":           "Deconectare",
		"add":              "ADAUGĂ",
		"no_reminders_yet": "Nu există memento-uri pentru antibiotice.\nFolosește /add pentru a crea primul reminder.",
		"ready":            "GATA",
		"due_now":          "ACUM",
		"minutes":          "min",
		"taken":            "LUAT",
		"take_now":         "IA ACUM",
		"skipped":          "SĂRIT",
		"delete":           "Șterge",
		"edit":             "Editează",
		"on":               "pornit",
		"off":              "oprit",
		"next_dose":        "Următoarea doză în",
		"doses_taken":      "Doze luate",
		"time_to_take":     "Este timpul să iei",
		"reminder_added":   "Reminder adăugat",
		"reminder_updated": "Reminder actualizat",
		"reminder_deleted": "Reminder șters",
		"login_ok":         "Autentificare reușită",
		"register_ok":      "Utilizator înregistrat cu succes",
		"days":             "zile",
		"no_history":       "Nicio doză înregistrată încă.",
		"medication":       "Medicament",
		"dosage":           "Doză",
		"frequency":        "Frecvență",
		"duration_days":    "Durată (zile, gol pentru niciuna)",
		"notes":            "Note",
	},
	"ru": {
		"login":            "Вход",
		"username":         "Имя пользователя",
		"password":         "Пароль",
		"confirm_password": "Подтвердите пароль",
		"register":         "Регистрация",
		"home_page":        "Главная",
		"welcome":          "Добро пожаловать",
		"settings":         "Настройки",
		"notifications":    "Уведомления",
		"dark_mode":        "Темный режим",
		"sound":            "Звук",
		"vibration":        "Вибрация",
		"language":         "Язык",
		"logout":           "Выход",
		"add":              "ДОБАВИТЬ",
		"no_reminders_yet": "Нет напоминаний о приеме антибиотиков.\nИспользуйте /add чтобы создать первое напоминание.",
		"ready":            "ГОТОВО",
		"due_now":          "СЕЙЧАС",
		"minutes":          "мин",
		"taken":            "ПРИНЯТО",
		"take_now":         "ПРИНЯТЬ",
		"skipped":          "ПРОПУЩЕНО",
		"delete":           "Удалить",
		"edit":             "Изменить",
		"on":               "вкл",
		"off":              "выкл",
		"next_dose":        "Следующая доза через",
		"doses_taken":      "Принято доз",
		"time_to_take":     "Пора принять",
		"reminder_added":   "Напоминание добавлено",
		"reminder_updated": "Напоминание обновлено",
		"reminder_deleted": "Напоминание удалено",
		"login_ok":         "Вход выполнен",
		"register_ok":      "Пользователь зарегистрирован",
		"days":             "дн.",
		"no_history":       "Доз пока не записано.",
		"medication":       "Лекарство",
		"dosage":           "Дозировка",
		"frequency":        "Частота",
		"duration_days":    "Длительность (дни, пусто если нет)",
		"notes":            "Заметки",
	},
}

// Translate returns the text for key in lang, falling back to English and
// then to the key itself.
func Translate(lang, key string) string {
	if text, ok := langDict[lang][key]; ok {
		return text
	}
	if text, ok := langDict["en"][key]; ok {
		return text
	}
	return key
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := langDict[lang]
	return ok
}

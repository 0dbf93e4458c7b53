package models

import "time"

// InchesPerMile — число дюймов в одной миле. Мили вычисляются из дюймов
// в момент записи в хранилище.
const InchesPerMile = 63360.0

// Delta представляет неизменяемый снимок счётчиков активности за один
// интервал сохранения.
//
// Одна и та же дельта передаётся во все транзакции сохранения тика
// и никогда не используется повторно.
//
// Поля:
//   - Keypresses: количество нажатий клавиш
//   - MouseClicks: количество кликов мыши
//   - ScrollSteps: количество шагов прокрутки
//   - MouseDistanceIn: путь курсора в дюймах
type Delta struct {
	Keypresses      uint64
	MouseClicks     uint64
	ScrollSteps     uint64
	MouseDistanceIn float64
}

// Empty сообщает, что за интервал не было ни одного события.
// Пустые дельты не сохраняются.
func (d Delta) Empty() bool {
	return d.Keypresses == 0 && d.MouseClicks == 0 && d.ScrollSteps == 0 && d.MouseDistanceIn == 0
}

// Miles возвращает путь курсора в милях.
func (d Delta) Miles() float64 {
	return d.MouseDistanceIn / InchesPerMile
}

// SummaryRow представляет единственную строку таблицы metrics_summary
// (id=1) с накопленными суммами за всё время работы.
//
// Строка обновляется инкрементально (прибавлением дельты) и никогда не
// пересчитывается из таблицы metrics на горячем пути.
type SummaryRow struct {
	TotalKeypresses    int64
	TotalMouseClicks   int64
	TotalScrollSteps   int64
	TotalMouseTravelIn float64
	TotalMouseTravelMi float64
	LastUpdated        time.Time
}

// Totals переводит строку сводки в дельту для посева стартовых сумм.
func (s SummaryRow) Totals() Delta {
	return Delta{
		Keypresses:      uint64(s.TotalKeypresses),
		MouseClicks:     uint64(s.TotalMouseClicks),
		ScrollSteps:     uint64(s.TotalScrollSteps),
		MouseDistanceIn: s.TotalMouseTravelIn,
	}
}

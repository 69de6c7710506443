// Package extract turns the registry's result page into a structured
// record and classifies the outcome. The page is semi-structured Arabic
// text: "label: value" pairs rendered inside the inquiry iframe.
package extract

// Field labels as they appear on the result page.
const (
	LabelElectoralCenter     = "مركزك الإنتخابي"
	LabelDistrict            = "قسم"
	LabelAddress             = "العنوان"
	LabelSubcommittee        = "رقم اللجنة الفرعية"
	LabelElectoralListNumber = "رقمك في الكشوف الانتخابية"
)

// Terminal messages the registry shows instead of a registration record.
const (
	MsgUnderage      = "عفوا, غير مسموح لإقل من 18 سنة بالإنتخاب"
	MsgNotRegistered = "الرقم القومي غير مدرج بقاعدة بيانات الناخبين"
)

// ResultIndicators are phrases whose appearance means the result pane has
// rendered, whatever the outcome. Used for the best-effort post-submit wait.
var ResultIndicators = []string{
	LabelElectoralCenter,
	LabelDistrict,
	"عفوا",
	"الرقم القومي",
}

package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Record is one SQCB (supplier quality chargeback) row as served by the
// upstream API. Every scalar arrives as a string; null and absent values are
// normalised to "" when decoding.
type Record struct {
	SQCBID           string `json:"sqcb_id"`
	SQCB             string `json:"sqcb"`
	Status           string `json:"status"`
	RQMRNo           string `json:"rqmr_no"`
	PlantID          string `json:"plant_id"`
	HDIncharge       string `json:"hd_incharge"`
	SupplierCode     string `json:"supplier_code"`
	SupplierName     string `json:"supplier_name"`
	ReturnType       string `json:"return_type"`
	SQCBAmount       string `json:"sqcb_amount"`
	FeedbackDate     string `json:"feedback_date"`
	TargetDate       string `json:"target_date"`
	Disposition      string `json:"disposition"`
	RMANo            string `json:"rma_no"`
	QM10CompleteDate string `json:"qm10_complete_date"`
	PONo             string `json:"po_no"`
	OBDNo            string `json:"obd_no"`
	DNIssuedDate     string `json:"dn_issued_date"`
	ScrapWeek        string `json:"scrap_week"`
	SecondPONo       string `json:"second_po_no"`
	SecondOBDNo      string `json:"second_obd_no"`
	Comments         string `json:"comments"`
	CreatedBy        string `json:"created_by"`
	ModifiedBy       string `json:"modified_by"`
	Modified         string `json:"modified"`

	Parts       []Part            `json:"parts"`
	Attachments []Attachment      `json:"attachments"`
	Pictures    []json.RawMessage `json:"pictures"`
}

type Part struct {
	ItemNumber         string            `json:"item_number"`
	PartNumber         string            `json:"part_number"`
	PartName           string            `json:"part_name"`
	NotificationNumber string            `json:"notification_number"`
	Qty                string            `json:"qty"`
	Pictures           []json.RawMessage `json:"pictures"`
}

type Attachment struct {
	AttachmentID      string `json:"attachment_id"`
	AttachmentName    string `json:"attachment_name"`
	AttachmentAddress string `json:"attachment_address"`
}

type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}

// Fields lists the scalar fields of r in declaration order. Search matches
// against these values.
func (r Record) Fields() []string {
	return []string{
		r.SQCBID, r.SQCB, r.Status, r.RQMRNo, r.PlantID, r.HDIncharge,
		r.SupplierCode, r.SupplierName, r.ReturnType, r.SQCBAmount,
		r.FeedbackDate, r.TargetDate, r.Disposition, r.RMANo,
		r.QM10CompleteDate, r.PONo, r.OBDNo, r.DNIssuedDate, r.ScrapWeek,
		r.SecondPONo, r.SecondOBDNo, r.Comments, r.CreatedBy, r.ModifiedBy,
		r.Modified,
	}
}

// Clone returns a copy of r that shares no slices with it.
func (r Record) Clone() Record {
	out := r
	if r.Parts != nil {
		out.Parts = make([]Part, len(r.Parts))
		copy(out.Parts, r.Parts)
	}
	if r.Attachments != nil {
		out.Attachments = make([]Attachment, len(r.Attachments))
		copy(out.Attachments, r.Attachments)
	}
	if r.Pictures != nil {
		out.Pictures = make([]json.RawMessage, len(r.Pictures))
		copy(out.Pictures, r.Pictures)
	}
	return out
}

type recordWire struct {
	SQCBID           flexString `json:"sqcb_id"`
	SQCB             flexString `json:"sqcb"`
	Status           flexString `json:"status"`
	RQMRNo           flexString `json:"rqmr_no"`
	PlantID          flexString `json:"plant_id"`
	HDIncharge       flexString `json:"hd_incharge"`
	SupplierCode     flexString `json:"supplier_code"`
	SupplierName     flexString `json:"supplier_name"`
	ReturnType       flexString `json:"return_type"`
	SQCBAmount       flexString `json:"sqcb_amount"`
	FeedbackDate     flexString `json:"feedback_date"`
	TargetDate       flexString `json:"target_date"`
	Disposition      flexString `json:"disposition"`
	RMANo            flexString `json:"rma_no"`
	QM10CompleteDate flexString `json:"qm10_complete_date"`
	PONo             flexString `json:"po_no"`
	OBDNo            flexString `json:"obd_no"`
	DNIssuedDate     flexString `json:"dn_issued_date"`
	ScrapWeek        flexString `json:"scrap_week"`
	SecondPONo       flexString `json:"second_po_no"`
	SecondOBDNo      flexString `json:"second_obd_no"`
	Comments         flexString `json:"comments"`
	CreatedBy        flexString `json:"created_by"`
	ModifiedBy       flexString `json:"modified_by"`
	Modified         flexString `json:"modified"`

	Parts       []Part            `json:"parts"`
	Attachments []Attachment      `json:"attachments"`
	Pictures    []json.RawMessage `json:"pictures"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		SQCBID:           string(w.SQCBID),
		SQCB:             string(w.SQCB),
		Status:           string(w.Status),
		RQMRNo:           string(w.RQMRNo),
		PlantID:          string(w.PlantID),
		HDIncharge:       string(w.HDIncharge),
		SupplierCode:     string(w.SupplierCode),
		SupplierName:     string(w.SupplierName),
		ReturnType:       string(w.ReturnType),
		SQCBAmount:       string(w.SQCBAmount),
		FeedbackDate:     string(w.FeedbackDate),
		TargetDate:       string(w.TargetDate),
		Disposition:      string(w.Disposition),
		RMANo:            string(w.RMANo),
		QM10CompleteDate: string(w.QM10CompleteDate),
		PONo:             string(w.PONo),
		OBDNo:            string(w.OBDNo),
		DNIssuedDate:     string(w.DNIssuedDate),
		ScrapWeek:        string(w.ScrapWeek),
		SecondPONo:       string(w.SecondPONo),
		SecondOBDNo:      string(w.SecondOBDNo),
		Comments:         string(w.Comments),
		CreatedBy:        string(w.CreatedBy),
		ModifiedBy:       string(w.ModifiedBy),
		Modified:         string(w.Modified),
		Parts:            w.Parts,
		Attachments:      w.Attachments,
		Pictures:         w.Pictures,
	}
	return nil
}

type partWire struct {
	ItemNumber         flexString        `json:"item_number"`
	PartNumber         flexString        `json:"part_number"`
	PartName           flexString        `json:"part_name"`
	NotificationNumber flexString        `json:"notification_number"`
	Qty                flexString        `json:"qty"`
	Pictures           []json.RawMessage `json:"pictures"`
}

func (p *Part) UnmarshalJSON(data []byte) error {
	var w partWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Part{
		ItemNumber:         string(w.ItemNumber),
		PartNumber:         string(w.PartNumber),
		PartName:           string(w.PartName),
		NotificationNumber: string(w.NotificationNumber),
		Qty:                string(w.Qty),
		Pictures:           w.Pictures,
	}
	return nil
}

type attachmentWire struct {
	AttachmentID      flexString `json:"attachment_id"`
	AttachmentName    flexString `json:"attachment_name"`
	AttachmentAddress flexString `json:"attachment_address"`
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	var w attachmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Attachment{
		AttachmentID:      string(w.AttachmentID),
		AttachmentName:    string(w.AttachmentName),
		AttachmentAddress: string(w.AttachmentAddress),
	}
	return nil
}

// flexString accepts any JSON scalar. Objects and arrays decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case 'n':
		*f = ""
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case 't', 'f':
		*f = flexString(strings.ToLower(string(data)))
	case '{', '[':
		*f = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

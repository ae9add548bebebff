package domain

import "time"

// тип задачи для проверки

type TaskType string

const (
	TaskTypeHTTP TaskType = "http"
	TaskTypePing TaskType = "ping"
	TaskTypeTCP  TaskType = "tcp"
	TaskTypeDNS  TaskType = "dns"
)

//типы DNS записей

type DNSRecordType string

const (
	DNSRecordA    DNSRecordType = "A"
	DNSRecordAAAA DNSRecordType = "AAAA"
	DNSRecordMX   DNSRecordType = "MX"
	DNSRecordNS   DNSRecordType = "NS"
	DNSRecordTXT  DNSRecordType = "TXT"
)

// Task describes one check to run. Host and Service are the Nagios object
// names the result is reported under; an empty Service reports a host check.
type Task struct {
	ID          string                 `json:"task_id" mapstructure:"id"`
	Type        TaskType               `json:"type" mapstructure:"type"`
	Target      string                 `json:"target" mapstructure:"target"`
	Host        string                 `json:"host" mapstructure:"host"`
	Service     string                 `json:"service" mapstructure:"service"`
	Parameters  map[string]interface{} `json:"parameters" mapstructure:"parameters"`
	ScheduledAt time.Time              `json:"scheduled_at" mapstructure:"-"`
	CreatedAt   time.Time              `json:"created_at" mapstructure:"-"`
	Timeout     int                    `json:"timeout" mapstructure:"timeout"`
}

// Result builds the passive check result for this task.
func (t Task) Result(code ReturnCode, message string) CheckResult {
	return CheckResult{
		Host:       t.Host,
		Service:    t.Service,
		ReturnCode: code,
		Message:    message,
	}
}

// Список задач
type TaskList struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

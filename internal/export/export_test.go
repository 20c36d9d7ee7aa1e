package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	regs := []model.Registration{
		{
			ID: "r1", Department: model.DepartmentInformatik, Appointment: "2024-03-04",
			FirstName: "Lea", LastName: "Huber", Gender: "female", Email: "lea@example.org",
			PhoneNumber: "0660", Residence: "Linz", CurrentSchool: "MS Linz; Zweig B", CurrentClass: "4a",
		},
		{
			ID: "r2", Department: model.DepartmentMedientechnik, Appointment: model.WaitingList,
			FirstName: "Max", LastName: "Gruber", Gender: "male", Email: "max@example.org",
			PhoneNumber: "0664", Residence: "Wels", CurrentSchool: "MS Wels", CurrentClass: "4b",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, regs))

	want := "id;department;appointment;first_name;last_name;gender;email;phone_number;residence;current_school;current_class\n" +
		"r1;informatik;2024-03-04;Lea;Huber;female;lea@example.org;0660;Linz;\"MS Linz; Zweig B\";4a\n" +
		"r2;medientechnik;waiting-list;Max;Gruber;male;max@example.org;0664;Wels;MS Wels;4b\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id;department;appointment;first_name;last_name;gender;email;phone_number;residence;current_school;current_class\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(brokenWriter{}, []model.Registration{{ID: "r1"}})
	assert.ErrorContains(t, err, "disk full")
}

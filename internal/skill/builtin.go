package skill

// Modules shipped with the academy-management application.
const (
	ModuleReport  = "report"
	ModuleTimer   = "timer"
	ModuleStudent = "student"
	ModuleMakeup  = "makeup"
	ModuleDM      = "dm"
	ModuleGrader  = "grader"
)

var (
	gradeEnum   = []string{"초1", "초2", "초3", "초4", "초5", "초6", "중1", "중2", "중3", "고1", "고2", "고3", "검정고시"}
	statusEnum  = []string{"active", "inactive"}
	makeupEnum  = []string{"시작 전", "진행 중", "완료"}
	weekdayEnum = []string{"월", "화", "수", "목", "금", "토", "일"}
	moduleEnum  = []string{ModuleReport, ModuleTimer, ModuleGrader, ModuleStudent, ModuleMakeup}
)

func param(name string, t ParamType, desc string, required bool, enum ...string) Parameter {
	return Parameter{Name: name, Type: t, Description: desc, Required: required, Enum: enum}
}

func read(name, module, desc string, params ...Parameter) Definition {
	return Definition{Name: name, Module: module, Description: desc, Effect: EffectRead, Parameters: params}
}

func write(name, module, desc string, params ...Parameter) Definition {
	return Definition{Name: name, Module: module, Description: desc, Effect: EffectWrite, Parameters: params, RequiresConfirmation: true}
}

func navigate(name, module, desc string, params ...Parameter) Definition {
	return Definition{Name: name, Module: module, Description: desc, Effect: EffectNavigate, Parameters: params}
}

// Builtin returns the built-in skill set in registration order.
func Builtin() []Definition {
	var defs []Definition
	defs = append(defs, reportSkills()...)
	defs = append(defs, timerSkills()...)
	defs = append(defs, studentSkills()...)
	defs = append(defs, makeupSkills()...)
	defs = append(defs, dmSkills()...)
	defs = append(defs, graderSkills()...)
	defs = append(defs, systemSkills()...)
	return defs
}

func reportSkills() []Definition {
	yearMonth := param("yearMonth", ParamString, "조회할 연월 (YYYY-MM 형식)", false)
	return []Definition{
		read("report.getStatus", ModuleReport, "이번 달 리포트 현황 (전체/완료/대기/전송)을 조회합니다.", yearMonth),
		read("report.getScores", ModuleReport, "특정 학생의 성적을 조회합니다.",
			param("studentName", ParamString, "성적을 조회할 학생의 이름", true),
			yearMonth),
		write("report.inputScore", ModuleReport, "학생의 점수 및 선생님 코멘트를 입력합니다.",
			param("studentName", ParamString, "점수를 입력할 학생의 이름", true),
			param("subject", ParamString, "점수를 입력할 과목명", true),
			param("score", ParamNumber, "입력할 점수 (0-100 사이)", true),
			param("comment", ParamString, "선생님 코멘트", false)),
		write("report.generateEvaluation", ModuleReport, "학생에 대한 AI 종합평가를 생성합니다.",
			param("studentName", ParamString, "종합평가를 생성할 학생의 이름", true)),
		write("report.setTotalComment", ModuleReport, "학생의 종합평가 코멘트를 저장합니다.",
			param("studentName", ParamString, "종합평가 코멘트를 저장할 학생의 이름", true),
			param("comment", ParamString, "저장할 종합평가 내용", true)),
		navigate("report.preview", ModuleReport, "리포트 미리보기 페이지로 이동합니다.",
			param("studentName", ParamString, "미리보기를 볼 학생의 이름 (선택 사항)", false)),
		write("report.exportJPG", ModuleReport, "생성된 리포트를 JPG 이미지 파일로 내보냅니다.",
			param("studentName", ParamString, "JPG로 내보낼 리포트의 학생 이름", true)),
		write("report.sendAlimtalk", ModuleReport, "생성된 리포트를 학부모에게 알림톡으로 전송합니다.",
			param("studentName", ParamString, "알림톡을 전송할 학생의 이름", true)),
	}
}

func timerSkills() []Definition {
	student := param("studentName", ParamString, "학생 이름", true)
	return []Definition{
		read("timer.getActiveSessions", ModuleTimer, "현재 수업 중인 학생 목록을 조회합니다."),
		write("timer.checkIn", ModuleTimer, "학생의 등원(입실)을 기록합니다.", student),
		write("timer.checkOut", ModuleTimer, "학생의 하원(퇴실)을 기록합니다.", student),
		read("timer.getTodaySchedule", ModuleTimer, "오늘의 수업 일정을 조회합니다."),
		read("timer.getStudentsByDay", ModuleTimer, "특정 요일에 수업이 있는 학생 목록을 조회합니다.",
			param("day", ParamString, "요일", true, weekdayEnum...)),
	}
}

func studentSkills() []Definition {
	return []Definition{
		read("student.list", ModuleStudent, "학생 목록을 조회합니다. 학년, 상태로 필터링할 수 있습니다.",
			param("grade", ParamString, "학년 필터", false, gradeEnum...),
			param("status", ParamString, "상태 필터", false, statusEnum...)),
		read("student.getInfo", ModuleStudent, "특정 학생의 상세 정보(학년, 과목, 담당 선생님, 학부모 연락처 등)를 조회합니다.",
			param("studentName", ParamString, "학생 이름", true)),
		write("student.create", ModuleStudent, "신규 학생을 등록합니다.",
			param("name", ParamString, "학생 이름", true),
			param("grade", ParamString, "학년", true),
			param("subjects", ParamString, "수강 과목 (쉼표 구분)", false)),
		write("student.update", ModuleStudent, "학생 정보를 수정합니다.",
			param("studentName", ParamString, "학생 이름", true),
			param("grade", ParamString, "학년", false),
			param("subjects", ParamString, "수강 과목 (쉼표 구분)", false),
			param("status", ParamString, "상태", false, statusEnum...)),
		read("student.getEnrollments", ModuleStudent, "학생의 수강 정보(요일, 시간, 과목)를 조회합니다.",
			param("studentName", ParamString, "학생 이름", true)),
	}
}

func makeupSkills() []Definition {
	student := param("studentName", ParamString, "학생 이름", true)
	subject := param("subject", ParamString, "과목명", true)
	return []Definition{
		read("makeup.getStatus", ModuleMakeup, "보강 현황을 조회합니다 (대기/진행/완료 건수).",
			param("status", ParamString, "필터할 보강 상태", false, makeupEnum...)),
		write("makeup.addAbsence", ModuleMakeup, "학생의 결석 기록을 추가합니다.",
			student, subject,
			param("absentDate", ParamDate, "결석일", true),
			param("reason", ParamString, "결석 사유", false)),
		write("makeup.schedule", ModuleMakeup, "보강 일정을 잡습니다.",
			student, subject,
			param("makeupDate", ParamDate, "보강 예정일", true),
			param("makeupTime", ParamString, "보강 시간 (예: 14:00~15:00)", false)),
		write("makeup.complete", ModuleMakeup, "보강을 완료 처리합니다.", student, subject),
		read("makeup.getCalendar", ModuleMakeup, "보강 일정 캘린더를 조회합니다.",
			param("month", ParamString, "조회할 월 (YYYY-MM)", false)),
	}
}

func dmSkills() []Definition {
	return []Definition{
		read("dm.getUnread", ModuleDM, "읽지 않은 메시지 수를 조회합니다."),
		read("dm.getMessages", ModuleDM, "특정 선생님과의 대화 내역을 조회합니다.",
			param("teacherName", ParamString, "대화 상대 선생님 이름", true)),
		write("dm.send", ModuleDM, "선생님에게 메시지를 전송합니다.",
			param("teacherName", ParamString, "수신 선생님 이름", true),
			param("content", ParamString, "메시지 내용", true)),
		read("dm.getContacts", ModuleDM, "연락 가능한 선생님 목록을 조회합니다."),
	}
}

func graderSkills() []Definition {
	return []Definition{
		write("grader.gradeOMR", ModuleGrader, "OMR 카드를 채점합니다. 학생, 과목, 시험 파일이 필요합니다.",
			param("studentName", ParamString, "학생 이름", true),
			param("subject", ParamString, "과목명", true)),
		read("grader.getHistory", ModuleGrader, "채점 이력을 조회합니다.",
			param("studentName", ParamString, "학생 이름 (전체 조회 시 생략)", false),
			param("subject", ParamString, "과목 필터", false)),
		read("grader.getStats", ModuleGrader, "채점 통계를 조회합니다 (성적 분포, 평균 등).",
			param("subject", ParamString, "과목 필터", false)),
	}
}

func systemSkills() []Definition {
	return []Definition{
		read("system.getNotifications", SystemModule, "알림 목록을 조회합니다.",
			param("unreadOnly", ParamBoolean, "읽지 않은 알림만 조회", false)),
		navigate("system.navigate", SystemModule, "다른 모듈 화면으로 이동합니다.",
			param("module", ParamString, "이동할 모듈", true, moduleEnum...),
			param("page", ParamString, "이동할 페이지", false)),
		read("system.getCurrentUser", SystemModule, "현재 로그인한 선생님 정보를 조회합니다."),
	}
}

// NewBuiltinCatalog returns a catalog preloaded with Builtin.
func NewBuiltinCatalog() *Catalog {
	c := NewCatalog(nil)
	if err := c.RegisterAll(Builtin()); err != nil {
		panic(err)
	}
	return c
}
